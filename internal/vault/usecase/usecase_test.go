package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/secretbox"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
)

const demoSecret = "JBSWY3DPEHPK3PXP"

var now = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type fakeDB struct {
	mu    sync.Mutex
	rows  map[int64]entity.TOTP
	err   error
	calls int
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[int64]entity.TOTP{}}
}

func (f *fakeDB) ListTOTPs(_ context.Context, userID int64) ([]entity.TOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.TOTP
	for _, t := range f.rows {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDB) GetTOTP(_ context.Context, id, userID int64) (*entity.TOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok || t.UserID != userID {
		return nil, goerror.ErrNotFound
	}
	return &t, nil
}

func (f *fakeDB) CreateTOTP(_ context.Context, t entity.TOTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows[t.ID] = t
	return nil
}

func (f *fakeDB) CreateTOTPs(_ context.Context, ts []entity.TOTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, t := range ts {
		f.rows[t.ID] = t
	}
	return nil
}

func (f *fakeDB) UpdateTOTP(_ context.Context, t entity.TOTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[t.ID]
	if !ok || cur.UserID != t.UserID {
		return goerror.ErrNotFound
	}
	f.rows[t.ID] = t
	return nil
}

func (f *fakeDB) DeleteTOTP(_ context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok || t.UserID != userID {
		return goerror.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeMQ struct {
	events []ExportCreatedEvent
	err    error
}

func (f *fakeMQ) PublishExportCreated(_ context.Context, msg ExportCreatedEvent) error {
	f.events = append(f.events, msg)
	return f.err
}

type seq struct{ n int64 }

func (s *seq) Generate() int64 { s.n++; return s.n }

type fixedUUID string

func (u fixedUUID) Generate() string { return string(u) }

type fixture struct {
	uc    *Usecase
	db    *fakeDB
	mq    *fakeMQ
	box   *secretbox.Box
	store *storage.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	box, err := secretbox.New(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte("vault:\n  qr_size: 128\n  export_bucket: test-exports\n"))
	require.NoError(t, err)

	f := &fixture{
		db:    newFakeDB(),
		mq:    &fakeMQ{},
		box:   box,
		store: storage.NewMemory(storage.MemoryOptions{BaseURL: "https://files.test/"}),
	}
	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Idempotency:   idempotency.NewMemory(),
		Storage:       f.store,
		Box:           box,
		Provisioner:   otp.NewProvisioner("otpkeeper", 0),
		Validator:     v,
		Config:        cfg,
		UID:           &seq{n: 100},
		UUID:          fixedUUID("0190c1d2-aaaa-7bbb-8ccc-000000000001"),
		Clock:         clock.Fixed(now),
		Instrument:    instrument.NewNoop(),
	})
	return f
}

func as(userID int64) context.Context {
	return authtoken.WithPrincipal(context.Background(), authtoken.Principal{UserID: userID, Role: "member"})
}

// seed stores an entry the way Create would, with its secret sealed.
func (f *fixture) seed(t *testing.T, row entity.TOTP) {
	t.Helper()
	sealed, err := f.box.Seal(row.Secret, scope(row.UserID))
	require.NoError(t, err)
	row.Secret = sealed
	f.db.rows[row.ID] = row
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, status, gerr.StatusCode())
}

func TestCodes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret, Digits: 6, Period: 30, Encoding: "base32"})
	f.db.rows[2] = entity.TOTP{ID: 2, UserID: 7, Label: "Legacy", Secret: "12345678901234567890", Digits: 8, Period: 30}
	f.db.rows[3] = entity.TOTP{ID: 3, UserID: 7, Label: "Broken", Secret: "enc:v1:AAAA", Digits: 6, Period: 30}
	f.seed(t, entity.TOTP{ID: 4, UserID: 8, Label: "Other", Secret: demoSecret, Encoding: "base32"})

	codes, err := f.uc.Codes(as(7))
	require.NoError(t, err)
	require.Len(t, codes, 3)

	want, err := otp.Generate(otp.Params{Secret: demoSecret, Encoding: "base32", Digits: 6, Period: 30}, now)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", codes[0].Label)
	assert.NoError(t, codes[0].Err)
	assert.Equal(t, want, codes[0].Result)

	assert.NoError(t, codes[1].Err, "plaintext rows are read back unchanged")
	assert.Len(t, codes[1].Result.Code, 8)

	assert.Equal(t, "Broken", codes[2].Label)
	assert.Error(t, codes[2].Err)
}

func TestCodes_Anonymous(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret})

	codes, err := f.uc.Codes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, codes)
	assert.Empty(t, codes)
}

func TestCodes_RepoError(t *testing.T) {
	f := newFixture(t)
	f.db.err = errors.New("db down")

	_, err := f.uc.Codes(as(7))
	requireStatus(t, err, http.StatusInternalServerError)
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.Generate(context.Background(), GenerateInput{Items: []GenerateItem{
		{Label: "rfc", Secret: "12345678901234567890", Digits: 8},
		{Label: "bad hex", Secret: "zzzzzzzzzzzz", Encoding: "hex"},
	}})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "rfc", out[0].Label)
	require.NoError(t, out[0].Err)
	assert.Len(t, out[0].Result.Code, 8)

	var perr *otp.ParamError
	require.ErrorAs(t, out[1].Err, &perr)
	assert.Equal(t, "secret", perr.Field)
}

func TestGenerate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   GenerateInput
	}{
		{"no items", GenerateInput{}},
		{"short secret", GenerateInput{Items: []GenerateItem{{Secret: "short"}}}},
		{"negative digits", GenerateInput{Items: []GenerateItem{{Secret: "12345678901234567890", Digits: -1}}}},
		{"unknown algorithm", GenerateInput{Items: []GenerateItem{{Secret: "12345678901234567890", Algorithm: "MD5"}}}},
		{"too many", GenerateInput{Items: make([]GenerateItem, 51)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Generate(context.Background(), tt.in)
			requireStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.Create(as(7), CreateInput{Label: "  GitHub ", Secret: demoSecret, Encoding: "base32"})
	require.NoError(t, err)

	assert.Equal(t, int64(101), out.ID)
	assert.Equal(t, "GitHub", out.Label)
	assert.Equal(t, entity.DefaultDigits, out.Digits)
	assert.Equal(t, entity.DefaultPeriod, out.Period)
	assert.Equal(t, demoSecret, out.Secret)
	assert.Equal(t, now, out.CreatedAt)

	stored := f.db.rows[out.ID]
	assert.True(t, strings.HasPrefix(stored.Secret, "enc:v1:"))
	assert.NotContains(t, stored.Secret, demoSecret)
	assert.Equal(t, int64(7), stored.UserID)
}

func TestCreate_Errors(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Create(context.Background(), CreateInput{Label: "x", Secret: demoSecret})
		requireStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("missing label", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Create(as(7), CreateInput{Secret: demoSecret})
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("undecodable secret", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Create(as(7), CreateInput{Label: "x", Secret: "not base32!", Encoding: "base32"})
		requireStatus(t, err, http.StatusBadRequest)

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Contains(t, gerr.Fields(), "secret")
		assert.Empty(t, f.db.rows)
	})
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret, Digits: 6, Period: 30, Encoding: "base32"})

	label := "GitHub (work)"
	digits := 8
	out, err := f.uc.Update(as(7), UpdateInput{ID: 1, Patch: entity.TOTPPatch{Label: &label, Digits: &digits}})
	require.NoError(t, err)

	assert.Equal(t, label, out.Label)
	assert.Equal(t, 8, out.Digits)
	assert.Equal(t, 30, out.Period)
	assert.Equal(t, demoSecret, out.Secret)

	stored := f.db.rows[1]
	assert.Equal(t, label, stored.Label)
	plain, err := f.box.Open(stored.Secret, scope(7))
	require.NoError(t, err)
	assert.Equal(t, demoSecret, plain)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret, Encoding: "base32"})

	_, err := f.uc.Update(as(8), UpdateInput{ID: 1})
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.uc.Update(as(7), UpdateInput{})
	requireStatus(t, err, http.StatusBadRequest)

	empty := ""
	_, err = f.uc.Update(as(7), UpdateInput{ID: 1, Patch: entity.TOTPPatch{Label: &empty}})
	requireStatus(t, err, http.StatusBadRequest)

	hexEnc := "hex"
	_, err = f.uc.Update(as(7), UpdateInput{ID: 1, Patch: entity.TOTPPatch{Encoding: &hexEnc}})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret})

	err := f.uc.Delete(as(8), DeleteInput{ID: 1})
	requireStatus(t, err, http.StatusNotFound)
	assert.Contains(t, f.db.rows, int64(1))

	require.NoError(t, f.uc.Delete(as(7), DeleteInput{ID: 1}))
	assert.NotContains(t, f.db.rows, int64(1))

	err = f.uc.Delete(as(7), DeleteInput{ID: 1})
	requireStatus(t, err, http.StatusNotFound)
}

func TestQR(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret, Digits: 6, Period: 30, Encoding: "base32"})

	out, err := f.uc.QR(as(7), QRInput{ID: 1})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.URI, "otpauth://totp/"))
	assert.Contains(t, out.URI, "secret="+demoSecret)
	assert.Contains(t, out.URI, "issuer=otpkeeper")
	assert.True(t, bytes.HasPrefix(out.PNG, []byte("\x89PNG")))

	_, err = f.uc.QR(as(8), QRInput{ID: 1})
	requireStatus(t, err, http.StatusNotFound)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret, Digits: 6, Period: 30, Encoding: "base32"})

	out, err := f.uc.Export(as(7), ExportInput{})
	require.NoError(t, err)
	assert.Equal(t, ExportVersion, out.Version)
	assert.Empty(t, out.SnapshotURL)
	require.Len(t, out.TOTPs, 1)
	assert.Equal(t, demoSecret, out.TOTPs[0].Secret)

	require.Len(t, f.mq.events, 1)
	assert.Equal(t, ExportCreatedEvent{UserID: 7, Count: 1}, f.mq.events[0])
}

func TestExport_Snapshot(t *testing.T) {
	f := newFixture(t)
	f.seed(t, entity.TOTP{ID: 1, UserID: 7, Label: "GitHub", Secret: demoSecret, Encoding: "base32"})
	f.mq.err = errors.New("broker down")

	out, err := f.uc.Export(as(7), ExportInput{Snapshot: true})
	require.NoError(t, err, "a publish failure does not fail the export")

	key := "exports/7/0190c1d2-aaaa-7bbb-8ccc-000000000001.json"
	assert.True(t, strings.HasPrefix(out.SnapshotURL, "https://files.test/test-exports/"+key))

	rc, info, err := f.store.Get(context.Background(), "test-exports", key)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "7", info.Metadata["user_id"])

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, demoSecret, doc.TOTPs[0].Secret)

	require.Len(t, f.mq.events, 1)
	assert.Equal(t, key, f.mq.events[0].Snapshot)
}

func TestImport(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.Import(as(7), ImportInput{TOTPs: []ImportItem{
		{Label: "GitHub", Secret: demoSecret, Encoding: "base32"},
		{Label: "AWS", Secret: "3132333435363738393031323334353637383930", Encoding: "hex", Digits: 8},
	}})
	require.NoError(t, err)
	require.Len(t, out.TOTPs, 2)
	assert.Equal(t, demoSecret, out.TOTPs[0].Secret)
	assert.Equal(t, 30, out.TOTPs[1].Period)

	require.Len(t, f.db.rows, 2)
	for _, row := range f.db.rows {
		assert.Equal(t, int64(7), row.UserID)
		assert.True(t, strings.HasPrefix(row.Secret, "enc:v1:"))
	}
}

func TestImport_RejectsWholePayload(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Import(as(7), ImportInput{TOTPs: []ImportItem{
		{Label: "GitHub", Secret: demoSecret, Encoding: "base32"},
		{Label: "Bad", Secret: "xyz!", Encoding: "base32"},
	}})
	requireStatus(t, err, http.StatusBadRequest)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Fields(), "totps[1].secret")
	assert.Empty(t, f.db.rows)
	assert.Zero(t, f.db.calls)
}

func TestImport_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	in := ImportInput{
		IdempotencyKey: "abc",
		TOTPs:          []ImportItem{{Label: "GitHub", Secret: demoSecret, Encoding: "base32"}},
	}

	_, err := f.uc.Import(as(7), in)
	require.NoError(t, err)

	_, err = f.uc.Import(as(7), in)
	requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, 1, f.db.calls)
	assert.Len(t, f.db.rows, 1)

	// keys are scoped per user
	_, err = f.uc.Import(as(8), in)
	require.NoError(t, err)
	assert.Equal(t, 2, f.db.calls)
}

func TestImport_RepoFailureMarksKeyFailed(t *testing.T) {
	f := newFixture(t)
	f.db.err = errors.New("db down")
	in := ImportInput{
		IdempotencyKey: "abc",
		TOTPs:          []ImportItem{{Label: "GitHub", Secret: demoSecret, Encoding: "base32"}},
	}

	_, err := f.uc.Import(as(7), in)
	requireStatus(t, err, http.StatusInternalServerError)

	f.db.err = nil
	_, err = f.uc.Import(as(7), in)
	requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, 1, f.db.calls)
}
