package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/session"
)

// login authenticates a user and persists the session snapshot to the
// KV substrate, so subsequent commands know who is acting.
func (cli *commandLine) login(uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return err
	}

	store := session.NewStore(cli.kv)
	store.Login(uuid.New().String(), uuid.New().String(), usr)

	fmt.Printf("Logged in as %s (%s)\n", usr.Username, store.PrimaryRole())
	return nil
}

func (cli *commandLine) whoami() error {
	store := session.NewStore(cli.kv)
	principal, ok := store.Principal()
	if !ok {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s <%s>\n", principal.Username, principal.Email)
	fmt.Printf("primary_role=%s\n", store.PrimaryRole())
	fmt.Printf("roles=%v\n", principal.Roles)
	return nil
}

func (cli *commandLine) logout() error {
	store := session.NewStore(cli.kv)
	store.Logout()
	fmt.Println("Logged out")
	return nil
}
