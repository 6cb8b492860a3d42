package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	"github.com/darasahq/darasa/storage/database"
	sqlxrepos "github.com/darasahq/darasa/storage/database/sqlx"
	kvstore "github.com/darasahq/darasa/storage/kv"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	sdb := sqlx.NewDb(db, "postgres")

	var kv core.KVStore
	if conf.Debug {
		kv = kvstore.NewInMem()
	} else {
		kv = kvstore.NewRedis(conf)
	}

	tntSvc, err := tenant.NewService(sqlxrepos.NewTenantRepository(sdb), kv, conf)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		db:     db,
		kv:     kv,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(sdb), emailsvc.NewConsoleService(conf), conf),
		tntSvc: tntSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
