// Package cli реализует команды администратора matswap.
//
// В локальном режиме команды работают с auth gate и каталогом напрямую
// через локальное хранилище. В удаленном режиме (-server) доступны только
// команды чтения каталога и статус сервера.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/matswap/internal/authgate"
	"github.com/iudanet/matswap/internal/catalog"
	apiclient "github.com/iudanet/matswap/internal/client/api"
	"github.com/iudanet/matswap/internal/client/iocli"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/pkg/api"
)

// PasswordEnv переменная окружения с паролем администратора для login
const PasswordEnv = "MATSWAP_ADMIN_PASSWORD"

var (
	// ErrUsage неверные аргументы команды
	ErrUsage = errors.New("usage")
	// ErrUnknownCommand неизвестная команда
	ErrUnknownCommand = errors.New("unknown command")
	// ErrLocalOnly команда недоступна в удаленном режиме
	ErrLocalOnly = errors.New("command is only available without -server")
	// ErrAlreadySetUp пароль администратора уже задан
	ErrAlreadySetUp = errors.New("administrator password is already set, use 'passwd' or 'reset'")
	// ErrPasswordMismatch пароль и подтверждение не совпали
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrNoSession команда требует активную сессию
	ErrNoSession = errors.New("no active session, run 'matswap login' first")
	// ErrEmptyField обязательное поле не заполнено
	ErrEmptyField = errors.New("field is required")
)

// Gate операции auth gate, используемые CLI
type Gate interface {
	Options() authgate.Options
	IsSetUp(ctx context.Context) bool
	SetupPassword(ctx context.Context, password string) error
	VerifyPassword(ctx context.Context, password string) (*authgate.VerifyResult, error)
	GetLockoutStatus(ctx context.Context) (models.LockoutStatus, error)
	IsSessionValid(ctx context.Context) bool
	SessionInfo(ctx context.Context) (*models.Session, error)
	ExtendSession(ctx context.Context) bool
	Logout(ctx context.Context) bool
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	ResetAuthData(ctx context.Context) bool
}

var _ Gate = (*authgate.Gate)(nil)

// Catalog операции локального каталога
type Catalog interface {
	Lookup(id string) (*models.Record, bool)
	Contains(id string) bool
	Insert(ctx context.Context, id string, fields models.RecordFields) error
	ListByType(t models.RecordType) []*models.Record
	GenerateID(t models.RecordType) (string, error)
	ResolvePair(styleID, materialID string) (*models.SwapPair, error)
}

var _ Catalog = (*catalog.Catalog)(nil)

// CatalogReader чтение каталога, общее для локального и удаленного режимов
type CatalogReader interface {
	Lookup(ctx context.Context, id string) (*models.Record, error)
	List(ctx context.Context, t models.RecordType) ([]*models.Record, error)
	Swap(ctx context.Context, styleID, materialID string) (*models.SwapPair, error)
}

// Remote сервер matswap
type Remote interface {
	CatalogReader
	Health(ctx context.Context) (string, error)
	Status(ctx context.Context) (*api.AuthStatusResponse, error)
}

var _ Remote = (*apiclient.Client)(nil)

// Cli исполняет команды администратора
type Cli struct {
	io      iocli.IO
	gate    Gate
	catalog Catalog
	reader  CatalogReader
	remote  Remote
	getenv  func(key string) (string, bool)
}

// NewLocal создает CLI поверх локальных gate и каталога
func NewLocal(io iocli.IO, gate Gate, cat Catalog, lookupEnv func(string) (string, bool)) *Cli {
	return &Cli{
		io:      io,
		gate:    gate,
		catalog: cat,
		reader:  localReader{cat},
		getenv:  lookupEnv,
	}
}

// NewRemote создает CLI для чтения каталога с сервера
func NewRemote(io iocli.IO, remote Remote) *Cli {
	return &Cli{
		io:     io,
		reader: remote,
		remote: remote,
	}
}

// Run выполняет команду args[0] с аргументами args[1:]
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return fmt.Errorf("%w: command is required", ErrUsage)
	}

	command, rest := args[0], args[1:]

	switch command {
	case "help":
		c.PrintUsage()
		return nil
	case "status":
		return c.runStatus(ctx)
	case "lookup":
		return c.runLookup(ctx, rest)
	case "list":
		return c.runList(ctx, rest)
	case "swap":
		return c.runSwap(ctx, rest)
	}

	local := map[string]func(context.Context, []string) error{
		"setup":  c.runSetup,
		"login":  c.runLogin,
		"logout": c.runLogout,
		"passwd": c.runPasswd,
		"reset":  c.runReset,
		"assign": c.runAssign,
	}

	run, ok := local[command]
	if !ok {
		c.PrintUsage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	if c.gate == nil {
		return fmt.Errorf("%s: %w", command, ErrLocalOnly)
	}
	return run(ctx, rest)
}

// PrintUsage печатает справку по командам
func (c *Cli) PrintUsage() {
	c.io.Println("matswap - barcode catalog administration")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  matswap [OPTIONS] COMMAND [ARGS]")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  -version            Show version information")
	c.io.Println("  -config PATH        YAML config file")
	c.io.Println("  -db PATH            Local database (default: matswap.db)")
	c.io.Println("  -storage DRIVER     bolt, sqlite or redis")
	c.io.Println("  -server URL         Read the catalog from a running server")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  setup                       Set the administrator password")
	c.io.Println("  login                       Start an administrator session")
	c.io.Println("  logout                      End the session")
	c.io.Println("  status                      Show password, lockout and session state")
	c.io.Println("  passwd                      Change the administrator password")
	c.io.Println("  reset                       Erase password, session and lockout state")
	c.io.Println("  lookup <barcode>            Show the record for a barcode")
	c.io.Println("  list <style|material>       List records of one type")
	c.io.Println("  assign <barcode|type>       Bind a barcode to a record (requires session)")
	c.io.Println("  swap <style> <material>     Resolve a style and material pair")
	c.io.Println()
	c.io.Printf("The login password may be passed in %s.\n", PasswordEnv)
}

// localReader адаптирует локальный каталог к CatalogReader
type localReader struct {
	c Catalog
}

func (r localReader) Lookup(_ context.Context, id string) (*models.Record, error) {
	rec, ok := r.c.Lookup(id)
	if ok {
		return rec, nil
	}
	if err := validateBarcode(id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrRecordNotFound, id)
}

func (r localReader) List(_ context.Context, t models.RecordType) ([]*models.Record, error) {
	return r.c.ListByType(t), nil
}

func (r localReader) Swap(_ context.Context, styleID, materialID string) (*models.SwapPair, error) {
	return r.c.ResolvePair(styleID, materialID)
}
