package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/matswap/internal/authgate"
	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/crypto"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage/boltdb"
	"github.com/iudanet/matswap/pkg/api"
)

// fakeIO отдает заранее заданный ввод и собирает вывод
type fakeIO struct {
	passwordErr error
	inputs      []string
	passwords   []string
	out         strings.Builder
}

func (f *fakeIO) Println(a ...any)               { _, _ = fmt.Fprintln(&f.out, a...) }
func (f *fakeIO) Printf(format string, a ...any) { _, _ = fmt.Fprintf(&f.out, format, a...) }
func (f *fakeIO) Write(p []byte) (int, error)    { return f.out.Write(p) }

func (f *fakeIO) ReadInput(prompt string) (string, error) {
	f.out.WriteString(prompt)
	if len(f.inputs) == 0 {
		return "", io.EOF
	}
	v := f.inputs[0]
	f.inputs = f.inputs[1:]
	return v, nil
}

func (f *fakeIO) ReadPassword(prompt string) (string, error) {
	f.out.WriteString(prompt)
	if f.passwordErr != nil {
		return "", f.passwordErr
	}
	if len(f.passwords) == 0 {
		return "", io.EOF
	}
	v := f.passwords[0]
	f.passwords = f.passwords[1:]
	return v, nil
}

type testEnv struct {
	cli  *Cli
	io   *fakeIO
	gate *authgate.Gate
	cat  *catalog.Catalog
	env  map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "matswap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat, err := catalog.New(ctx, store, nil)
	require.NoError(t, err)

	gate := authgate.New(store, nil, authgate.Options{
		KDF: crypto.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32},
	})

	e := &testEnv{io: &fakeIO{}, gate: gate, cat: cat, env: map[string]string{}}
	e.cli = NewLocal(e.io, gate, cat, func(key string) (string, bool) {
		v, ok := e.env[key]
		return v, ok
	})
	return e
}

// run выполняет команду и сбрасывает накопленный вывод
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	e.io.out.Reset()
	err := e.cli.Run(context.Background(), args)
	return e.io.out.String(), err
}

func (e *testEnv) setUpAndLogin(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.gate.SetupPassword(ctx, "admin123"))
	_, err := e.gate.VerifyPassword(ctx, "admin123")
	require.NoError(t, err)
}

func TestRun_NoCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, "Commands:")
}

func TestRun_Help(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "assign <barcode|type>")
	assert.Contains(t, out, PasswordEnv)
}

func TestRun_UnknownCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "sync")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, out, "Usage:")
}

func TestRun_WrongArgCount(t *testing.T) {
	e := newTestEnv(t)

	for _, args := range [][]string{
		{"setup", "extra"},
		{"login", "pw"},
		{"lookup"},
		{"list"},
		{"swap", "STYLE-001"},
		{"assign"},
		{"reset", "now"},
	} {
		_, err := e.run(t, args...)
		assert.ErrorIs(t, err, ErrUsage, "args %v", args)
	}
}

func TestSetupLoginAssignFlow(t *testing.T) {
	e := newTestEnv(t)

	e.io.passwords = []string{"admin123", "admin123"}
	out, err := e.run(t, "setup")
	require.NoError(t, err)
	assert.Contains(t, out, "at least 6 characters")
	assert.Contains(t, out, "✓ Administrator password set.")

	// Без сессии assign запрещен
	_, err = e.run(t, "assign", "style")
	assert.ErrorIs(t, err, ErrNoSession)

	e.env[PasswordEnv] = "admin123"
	out, err = e.run(t, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Login successful!")
	assert.NotContains(t, out, "Password:", "password from env must not prompt")

	e.io.inputs = []string{"Tuxedo Sofa", "images/styles/tuxedo.jpg", "Low arms, deep seat"}
	out, err = e.run(t, "assign", "style")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Assign STYLE-004 ===")
	assert.Contains(t, out, `✓ Barcode STYLE-004 assigned to "Tuxedo Sofa"`)

	out, err = e.run(t, "lookup", "STYLE-004")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        Tuxedo Sofa")
	assert.Contains(t, out, "Description: Low arms, deep seat")

	out, err = e.run(t, "list", "style")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Style records ===")
	assert.Contains(t, out, "4. STYLE-004  Tuxedo Sofa")
	assert.Contains(t, out, "Total: 4")

	out, err = e.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out.")

	out, err = e.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No active session.")

	_, err = e.run(t, "assign", "MAT-010")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSetup_Errors(t *testing.T) {
	t.Run("password mismatch", func(t *testing.T) {
		e := newTestEnv(t)
		e.io.passwords = []string{"admin123", "admin124"}

		_, err := e.run(t, "setup")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
		assert.False(t, e.gate.IsSetUp(context.Background()))
	})

	t.Run("weak password", func(t *testing.T) {
		e := newTestEnv(t)
		e.io.passwords = []string{"abc", "abc"}

		_, err := e.run(t, "setup")
		assert.ErrorIs(t, err, authgate.ErrWeakPassword)
	})

	t.Run("already set up", func(t *testing.T) {
		e := newTestEnv(t)
		require.NoError(t, e.gate.SetupPassword(context.Background(), "admin123"))

		_, err := e.run(t, "setup")
		assert.ErrorIs(t, err, ErrAlreadySetUp)
	})

	t.Run("read error", func(t *testing.T) {
		e := newTestEnv(t)
		e.io.passwordErr = errors.New("not a terminal")

		_, err := e.run(t, "setup")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read password")
	})
}

func TestLogin_WrongPasswordAndLockout(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.gate.SetupPassword(context.Background(), "admin123"))

	e.io.passwords = []string{"wrong1"}
	_, err := e.run(t, "login")
	var invalid *authgate.InvalidPasswordError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 4, invalid.RemainingAttempts)

	out, err := e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Failed attempts: 1 of 5")

	e.io.passwords = []string{"wrong2", "wrong3", "wrong4", "wrong5"}
	for range 3 {
		_, err = e.run(t, "login")
		require.ErrorIs(t, err, authgate.ErrInvalidPassword)
	}
	_, err = e.run(t, "login")
	assert.ErrorIs(t, err, authgate.ErrTooManyAttempts)

	out, err = e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked out: try again in 15 minute(s)")

	// Даже верный пароль отклоняется во время блокировки
	e.io.passwords = []string{"admin123"}
	_, err = e.run(t, "login")
	assert.ErrorIs(t, err, authgate.ErrLockedOut)
}

func TestLogin_NotSetUp(t *testing.T) {
	e := newTestEnv(t)
	e.io.passwords = []string{"admin123"}

	_, err := e.run(t, "login")
	assert.ErrorIs(t, err, authgate.ErrNotSetUp)
}

func TestStatus(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Administrator: not configured")
	assert.Contains(t, out, "Session: none")
	assert.Contains(t, out, "Catalog: 3 styles, 3 materials")

	e.setUpAndLogin(t)

	out, err = e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Administrator: configured")
	assert.Contains(t, out, "Session: active until")
	assert.NotContains(t, out, "Failed attempts")
}

func TestAssign(t *testing.T) {
	t.Run("explicit barcode", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUpAndLogin(t)

		e.io.inputs = []string{"Boucle", "images/materials/boucle.jpg", ""}
		_, err := e.run(t, "assign", "MAT-120")
		require.NoError(t, err)

		rec, ok := e.cat.Lookup("MAT-120")
		require.True(t, ok)
		assert.Equal(t, models.RecordTypeMaterial, rec.Type)
		assert.Empty(t, rec.Description)
	})

	t.Run("overwrite declined", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUpAndLogin(t)

		e.io.inputs = []string{"n"}
		out, err := e.run(t, "assign", "MAT-001")
		require.NoError(t, err)
		assert.Contains(t, out, "already assigned")
		assert.Contains(t, out, "Aborted.")

		rec, _ := e.cat.Lookup("MAT-001")
		assert.Equal(t, "Grey Linen Fabric", rec.Name)
	})

	t.Run("overwrite accepted", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUpAndLogin(t)

		e.io.inputs = []string{"yes", "Charcoal Linen", "images/materials/charcoal.jpg", ""}
		_, err := e.run(t, "assign", "MAT-001")
		require.NoError(t, err)

		rec, _ := e.cat.Lookup("MAT-001")
		assert.Equal(t, "Charcoal Linen", rec.Name)
		assert.Empty(t, rec.Description, "overwrite replaces all fields")
	})

	t.Run("invalid barcode", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUpAndLogin(t)

		_, err := e.run(t, "assign", "STYLE-12")
		assert.ErrorIs(t, err, catalog.ErrInvalidFormat)
	})

	t.Run("empty name", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUpAndLogin(t)

		e.io.inputs = []string{""}
		_, err := e.run(t, "assign", "STYLE-050")
		assert.ErrorIs(t, err, ErrEmptyField)
		assert.False(t, e.cat.Contains("STYLE-050"))
	})

	t.Run("assign extends session", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUpAndLogin(t)

		before, err := e.gate.SessionInfo(context.Background())
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		e.io.inputs = []string{"Wingback", "images/wingback.jpg", ""}
		_, err = e.run(t, "assign", "STYLE-200")
		require.NoError(t, err)

		after, err := e.gate.SessionInfo(context.Background())
		require.NoError(t, err)
		assert.True(t, after.ExpiresAt.After(before.ExpiresAt))
	})
}

func TestPasswd(t *testing.T) {
	e := newTestEnv(t)
	e.setUpAndLogin(t)

	e.io.passwords = []string{"admin123", "newpass1", "newpass1"}
	out, err := e.run(t, "passwd")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Password changed")
	assert.False(t, e.gate.IsSessionValid(context.Background()))

	_, err = e.gate.VerifyPassword(context.Background(), "newpass1")
	assert.NoError(t, err)

	e.io.passwords = []string{"wrong", "another1", "another1"}
	_, err = e.run(t, "passwd")
	assert.ErrorIs(t, err, authgate.ErrInvalidPassword)
}

func TestReset(t *testing.T) {
	e := newTestEnv(t)
	e.setUpAndLogin(t)

	e.io.inputs = []string{"reset"}
	out, err := e.run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")
	assert.True(t, e.gate.IsSetUp(context.Background()))

	e.io.inputs = []string{"RESET"}
	out, err = e.run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Authentication data erased.")
	assert.False(t, e.gate.IsSetUp(context.Background()))
	assert.False(t, e.gate.IsSessionValid(context.Background()))

	// Каталог не затрагивается
	assert.True(t, e.cat.Contains("STYLE-001"))
}

func TestLookup_Errors(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run(t, "lookup", "STYLE-999")
	assert.ErrorIs(t, err, catalog.ErrRecordNotFound)

	_, err = e.run(t, "lookup", "sofa")
	assert.ErrorIs(t, err, catalog.ErrInvalidFormat)
}

func TestList_UnknownType(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run(t, "list", "fabric")
	assert.ErrorIs(t, err, catalog.ErrUnknownType)
}

func TestSwap(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "swap", "STYLE-002", "MAT-002")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Style ===")
	assert.Contains(t, out, "Mid-Century Lounge Chair")
	assert.Contains(t, out, "=== Material ===")
	assert.Contains(t, out, "Cognac Leather")

	_, err = e.run(t, "swap", "MAT-002", "STYLE-002")
	assert.ErrorIs(t, err, catalog.ErrTypeMismatch)

	_, err = e.run(t, "swap", "STYLE-002", "MAT-404")
	assert.ErrorIs(t, err, catalog.ErrRecordNotFound)
}

// fakeRemote сервер с фиксированными ответами
type fakeRemote struct {
	statusErr error
	records   map[string]*models.Record
}

func (f *fakeRemote) Lookup(_ context.Context, id string) (*models.Record, error) {
	if r, ok := f.records[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrRecordNotFound, id)
}

func (f *fakeRemote) List(_ context.Context, t models.RecordType) ([]*models.Record, error) {
	var out []*models.Record
	for _, id := range []string{"STYLE-001", "MAT-001"} {
		if r, ok := f.records[id]; ok && r.Type == t {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) Swap(ctx context.Context, styleID, materialID string) (*models.SwapPair, error) {
	s, err := f.Lookup(ctx, styleID)
	if err != nil {
		return nil, err
	}
	m, err := f.Lookup(ctx, materialID)
	if err != nil {
		return nil, err
	}
	return &models.SwapPair{Style: s, Material: m}, nil
}

func (f *fakeRemote) Health(context.Context) (string, error) { return "v0.9.0", nil }

func (f *fakeRemote) Status(context.Context) (*api.AuthStatusResponse, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &api.AuthStatusResponse{SetUp: true, Locked: true, RemainingMinutes: 7}, nil
}

func TestRemote(t *testing.T) {
	remote := &fakeRemote{records: map[string]*models.Record{
		"STYLE-001": {ID: "STYLE-001", Type: models.RecordTypeStyle, Name: "Modern Sectional Sofa", ImageURL: "a.jpg"},
		"MAT-001":   {ID: "MAT-001", Type: models.RecordTypeMaterial, Name: "Grey Linen Fabric", ImageURL: "b.jpg"},
	}}
	fio := &fakeIO{}
	c := NewRemote(fio, remote)
	ctx := context.Background()

	require.NoError(t, c.Run(ctx, []string{"status"}))
	out := fio.out.String()
	assert.Contains(t, out, "Server version: v0.9.0")
	assert.Contains(t, out, "Locked out: try again in 7 minute(s)")
	assert.Contains(t, out, "Catalog: 1 styles, 1 materials")

	fio.out.Reset()
	require.NoError(t, c.Run(ctx, []string{"lookup", "MAT-001"}))
	assert.Contains(t, fio.out.String(), "Grey Linen Fabric")

	fio.out.Reset()
	require.NoError(t, c.Run(ctx, []string{"swap", "STYLE-001", "MAT-001"}))
	assert.Contains(t, fio.out.String(), "Modern Sectional Sofa")

	for _, cmd := range []string{"setup", "login", "logout", "passwd", "reset", "assign"} {
		err := c.Run(ctx, []string{cmd})
		assert.ErrorIs(t, err, ErrLocalOnly, cmd)
	}

	remote.statusErr = errors.New("connection refused")
	assert.Error(t, c.Run(ctx, []string{"status"}))
}
