package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/gcbaptista/go-archive-search/internal/logging"
)

const appName = "archive_search"

var logger = logging.WithComponent(appName)

func main() {
	if err := makeApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		_ = os.Stderr.Sync()
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "BM25 ranked search over archive file listings"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			EnvVar: "ARCHIVE_SEARCH_LOGGING_LEVEL",
			Usage:  "Log level (debug, info, warn, error)",
		},
		cli.StringFlag{
			Name:   "log-format",
			Value:  "text",
			EnvVar: "ARCHIVE_SEARCH_LOGGING_FORMAT",
			Usage:  "Log format (text or json)",
		},
	}
	app.Before = func(c *cli.Context) error {
		logging.Setup(c.GlobalString("log-level"), c.GlobalString("log-format"), os.Stderr)
		return nil
	}
	app.Commands = []cli.Command{
		saveCommand(),
		serveCommand(),
	}
	return app
}

func hostFields() logrus.Fields {
	host, _ := os.Hostname()
	return logrus.Fields{"app": appName, "host": host}
}
