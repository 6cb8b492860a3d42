package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"net/mail"
	"strconv"
	"testing"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/billing"
	"github.com/darasahq/darasa/core/session"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
	kvstore "github.com/darasahq/darasa/storage/kv"
)

var testConf = &core.Config{
	TestMode:                  true,
	AppName:                   "Darasa",
	SecretKey:                 "secret",
	DefaultTier:               "basic",
	DefaultFromEmail:          mail.Address{Name: "Darasa", Address: "noreply@darasa.test"},
	PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
}

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	mailSvc := emailsvc.NewConsoleServiceMock(testConf)
	kv := kvstore.NewInMem()

	tntSvc, err := tenant.NewService(dummydb.NewTenantRepository(db), kv, testConf)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return &commandLine{
		kv:     kv,
		usrSvc: user.NewServiceMock(dummydb.NewUserRepository(db), mailSvc, testConf),
		tntSvc: tntSvc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr, err := cli.usrSvc.Create(user.NewUser{
		Name:            "Awe Mdr",
		Username:        "awemdr",
		Email:           "awe@darasa.test",
		Password:        "LokiCat!",
		PasswordConfirm: "LokiCat!",
	})
	if err != nil {
		t.Fatalf("creating user failed: %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lolcat"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmaocat"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := cli.usrSvc.GetByID(usr.ID)
				if err != nil {
					t.Fatalf("GetByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte("LokiCat!"), nil
	}

	if err := cli.run([]string{"admin", "adduser", "-username", "bigboss", "-email", "boss@darasa.test", "-admin"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	usr, err := cli.usrSvc.GetByUsername("bigboss")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if !usr.IsAdmin() {
		t.Error("expected an admin user")
	}
	if err := usr.CheckPassword("LokiCat!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again updates instead of duplicating
	if err := cli.run([]string{"admin", "adduser", "-username", "bigboss", "-email", "boss2@darasa.test"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	usr, err = cli.usrSvc.GetByUsername("bigboss")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if usr.Email != "boss2@darasa.test" {
		t.Errorf("got email %q; want %q", usr.Email, "boss2@darasa.test")
	}
}

func Test_commandLine_session(t *testing.T) {
	cli := setup(t)

	usr, err := cli.usrSvc.Create(user.NewUser{
		Name:            "Mwalimu Mkuu",
		Username:        "mwmkuu",
		Email:           "mwmkuu@darasa.test",
		Password:        "LokiCat!",
		PasswordConfirm: "LokiCat!",
		Roles:           []user.Role{user.RoleTeacher, user.RolePrincipal},
	})
	if err != nil {
		t.Fatalf("creating user failed: %v", err)
	}

	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte("LokiCat!"), nil
	}

	if err := cli.run([]string{"admin", "login", "-username", usr.Username}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	store := session.NewStore(cli.kv)
	principal, ok := store.Principal()
	if !ok {
		t.Fatal("expected a stored principal after login")
	}
	if principal.ID != usr.ID {
		t.Errorf("got principal %q; want %q", principal.ID, usr.ID)
	}
	if got := store.PrimaryRole(); got != user.RolePrincipal {
		t.Errorf("got primary role %q; want %q", got, user.RolePrincipal)
	}
	if !store.Authenticated() {
		t.Error("expected an authenticated session after login")
	}

	if err := cli.run([]string{"admin", "logout"}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if session.NewStore(cli.kv).Authenticated() {
		t.Error("expected no session after logout")
	}

	// whoami tolerates an empty session
	if err := cli.run([]string{"admin", "whoami"}); err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
}

func Test_commandLine_setPlan(t *testing.T) {
	cli := setup(t)

	tnt, err := cli.tntSvc.Create(tenant.NewTenant{Name: "Shule Academy", Slug: "shule-academy"})
	if err != nil {
		t.Fatalf("creating tenant failed: %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"setplan"}, wantErr: errHelp},
		{name: "missing tier", args: []string{"setplan", "-tenant", tnt.ID}, wantErr: errHelp},
		{name: "invalid tier", args: []string{"setplan", "-tenant", tnt.ID, "-tier", "platinum"}, wantErr: billing.ErrInvalidTier},
		{name: "unknown tenant", args: []string{"setplan", "-tenant", "ghost", "-tier", "pro"}, wantErr: tenant.ErrNotFound},
		{name: "set by ID", args: []string{"setplan", "-tenant", tnt.ID, "-tier", "pro"}, extra: billing.TierPro},
		{name: "set by slug", args: []string{"setplan", "-tenant", tnt.Slug, "-tier", "max"}, extra: billing.TierMax},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}

			got, err := cli.tntSvc.GetByID(tnt.ID)
			if err != nil {
				t.Fatalf("GetByID() failed: %v", err)
			}
			if want := tt.extra.(billing.Tier); got.Tier != want {
				t.Errorf("got tier %q; want %q", got.Tier, want)
			}
		})
	}
}
