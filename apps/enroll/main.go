package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/enrollment"
	emailsvc "github.com/trezcool/masomo/services/email"
	logsvc "github.com/trezcool/masomo/services/logger"
	"github.com/trezcool/masomo/storage/cache"
	"github.com/trezcool/masomo/storage/database"
)

// Command line portal client: requests enrollments the way the portal views do.
func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ENROLL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	var db *sqlx.DB
	if conf.Cache.Driver == cache.DriverSQL {
		var err error
		if db, err = database.Open(conf); err != nil {
			logger.Fatal("opening cache database", err)
		}
	}

	cli := commandLine{
		conf:   conf,
		logger: logger,
		out:    os.Stdout,
		openCache: func(profileKey string) (enrollment.DurableCache, error) {
			c := *conf
			c.Cache.ProfileKey = profileKey
			return cache.Open(&c, db)
		},
		mailer: enrollment.NewEmailMailer(emailsvc.NewEmailService(conf, logger), conf),
	}
	err := cli.run(os.Args)

	if db != nil {
		_ = db.Close()
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			log.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
