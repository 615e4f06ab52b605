// Package cli is the interactive terminal front end: a REPL over the
// authentication engine, plus an admin submenu gated by the admin key.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/admin"
	"github.com/dmitrijs2005/faceguard/internal/audit"
	"github.com/dmitrijs2005/faceguard/internal/auth"
	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/faceid"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/storage"
)

// App owns the wired components and the interactive session state.
type App struct {
	cfg    *config.Config
	store  *storage.Store
	engine *auth.Engine
	admin  *admin.Service
	log    logging.Logger

	reader      *bufio.Reader
	out         io.Writer
	currentUser string
}

// NewApp loads the data key, opens the encrypted store and wires the
// engine and admin service. A store integrity failure is recorded in the
// audit log under the SYSTEM user before being returned; the application
// never starts over a corrupted data file.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	auditLog := audit.New(cfg.AuditLogPath(), log)

	key, err := storage.LoadOrInitKey(cfg.KeyFilePath())
	if err != nil {
		return nil, err
	}

	dataPath := cfg.DataFilePath()
	_, statErr := os.Stat(dataPath)
	freshStore := os.IsNotExist(statErr)

	store, err := storage.Open(ctx, dataPath, key, log)
	if err != nil {
		if errors.Is(err, common.ErrorIntegrity) {
			if aerr := auditLog.Event(ctx, audit.SystemUser, audit.KindFailDataIntegrity, "data file failed integrity check"); aerr != nil {
				log.Error(ctx, "audit write failed", "error", aerr)
			}
		}
		common.WipeByteArray(key)
		return nil, err
	}

	// a fresh store starts from the configured policy, not the built-in
	// model defaults
	if freshStore {
		sysCfg := models.DefaultSystemConfig()
		sysCfg.ForceMFA = cfg.DefaultForceMFA
		sysCfg.FaceThreshold = cfg.DefaultFaceThreshold
		sysCfg.PBKDF2Iterations = cfg.PBKDF2Iterations
		if err := store.SetConfig(ctx, sysCfg); err != nil {
			store.Close()
			return nil, err
		}
	}

	keys := admin.NewKeyStore(cfg.AdminKeyPath(), cfg.SaltLength, cfg.PBKDF2Iterations, log)
	if err := keys.EnsureInitialized(ctx, cfg.AdminBootstrapPassword); err != nil {
		store.Close()
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	out := os.Stdout

	capture := NewFileProbeCapturer(reader, out)
	compare := faceid.New(cfg.FaceCompareURL, cfg.FaceDetectURL, cfg.FaceAPIKey, cfg.FaceAPISecret,
		cfg.FaceRequestTimeout, log)

	return &App{
		cfg:    cfg,
		store:  store,
		engine: auth.NewEngine(store, auditLog, capture, compare, cfg.SaltLength, log),
		admin:  admin.NewService(store, auditLog, keys, log),
		log:    log.With("component", "cli"),
		reader: reader,
		out:    out,
	}, nil
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "FaceGuard (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

// Close releases the store and wipes the data key.
func (a *App) Close() {
	a.store.Close()
}

func (a *App) isLoggedIn() bool {
	return a.currentUser != ""
}

func (a *App) status() string {
	if a.currentUser == "" {
		return "not logged in"
	}
	return a.currentUser
}

func (a *App) credentials() (username, password string, err error) {
	username, err = GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", "", err
	}
	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return "", "", err
	}
	return username, string(pw), nil
}

// Login runs the full authentication flow, including the face factor
// when policy and enrolment require it.
func (a *App) Login(ctx context.Context) error {
	username, password, err := a.credentials()
	if err != nil {
		return err
	}

	verdict := a.engine.Login(ctx, username, password)
	fmt.Fprintln(a.out, verdict.Message())
	if verdict.OK {
		a.currentUser = verdict.Username
	}
	return verdict.Err
}

// Register creates a password-only account.
func (a *App) Register(ctx context.Context) error {
	username, password, err := a.credentials()
	if err != nil {
		return err
	}
	user, err := a.engine.Register(ctx, username, password)
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}
	fmt.Fprintf(a.out, "user %q registered (id %d)\n", user.Username, user.ID)
	return nil
}

// RegisterFace creates an account and enrols the face factor from a
// probe image.
func (a *App) RegisterFace(ctx context.Context) error {
	username, password, err := a.credentials()
	if err != nil {
		return err
	}
	user, err := a.engine.RegisterWithFace(ctx, username, password)
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}
	fmt.Fprintf(a.out, "user %q registered with face factor (id %d)\n", user.Username, user.ID)
	return nil
}

// ChangePassword changes the current user's password after re-verifying
// the old one and, for enrolled users, the face factor.
func (a *App) ChangePassword(ctx context.Context) error {
	oldPw, err := GetPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPw, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}

	if err := a.engine.ChangePassword(ctx, a.currentUser, string(oldPw), string(newPw)); err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}
	fmt.Fprintln(a.out, "password changed")
	return nil
}

// VerifyFace re-runs the face check for the current user.
func (a *App) VerifyFace(ctx context.Context) error {
	if err := a.engine.VerifyFace(ctx, a.currentUser); err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}
	fmt.Fprintln(a.out, "face verified")
	return nil
}

// Logout clears the session.
func (a *App) Logout(ctx context.Context) error {
	a.currentUser = ""
	fmt.Fprintln(a.out, "logged out")
	return nil
}
