// Package session orchestrates the editing session for one job record.
// It owns the current Job instance, the signature pad, and the store
// handle; all edits flow through command methods here so the HTTP
// surface never touches job state directly.
package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/grabke213/proofpack/internal/export"
	"github.com/grabke213/proofpack/internal/extract"
	"github.com/grabke213/proofpack/internal/geo"
	"github.com/grabke213/proofpack/internal/job"
	"github.com/grabke213/proofpack/internal/photo"
	"github.com/grabke213/proofpack/internal/signature"
	"github.com/grabke213/proofpack/internal/validate"
	"github.com/grabke213/proofpack/pkg/log"
)

// FieldEdit is one command from the editing surface. An empty
// ApplianceID addresses the job itself.
type FieldEdit struct {
	ApplianceID string `json:"applianceId,omitempty"`
	Field       string `json:"field"`
	Value       string `json:"value"`
}

// Session serializes all access to the current job. HTTP handlers are
// the only callers, so a single mutex is the whole concurrency model.
type Session struct {
	mu      sync.Mutex
	store   job.Store
	builder *export.Builder
	pad     *signature.Pad
	locator geo.Locator
	gpsWait time.Duration
	nowFn   func() time.Time
	current *job.Job
}

type Option func(*Session)

// WithLocator wires a location source; without one, job starts proceed
// with no GPS fix.
func WithLocator(l geo.Locator, timeout time.Duration) Option {
	return func(s *Session) {
		s.locator = l
		s.gpsWait = timeout
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.nowFn = now
	}
}

// New creates a session holding a fresh job.
func New(store job.Store, builder *export.Builder, opts ...Option) *Session {
	s := &Session{
		store:   store,
		builder: builder,
		pad:     signature.NewPad(),
		gpsWait: geo.DefaultTimeout,
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = job.New(s.nowFn())
	return s
}

// NewJob discards the current record and starts a fresh one. The
// previous record survives only if it was saved.
func (s *Session) NewJob() *job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = job.New(s.nowFn())
	s.pad.Clear()
	return s.current.Clone()
}

// Load replaces the current record with a stored one and re-hydrates
// the signature pad from the saved signature image.
func (s *Session) Load(ctx context.Context, id string) error {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		return WrapError(err, ErrPersistence, "load job")
	}
	if j == nil {
		return NewError(ErrNotFound, "job not found: "+id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = j
	if err := s.pad.LoadDataURL(string(j.Signature)); err != nil {
		// A corrupt stored signature never blocks loading the record.
		log.Warn("could not restore signature for %s: %v", id, err)
		s.pad.Clear()
	}
	return nil
}

// Job returns a snapshot of the current record. The snapshot never
// aliases session state.
func (s *Session) Job() *job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Apply runs one field edit against the current record.
func (s *Session) Apply(edit FieldEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	if edit.ApplianceID == "" {
		return s.current.ApplyField(edit.Field, edit.Value, now)
	}
	return s.current.ApplyApplianceField(edit.ApplianceID, edit.Field, edit.Value, now)
}

// AddAppliance appends a blank appliance and returns its id.
func (s *Session) AddAppliance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.AddAppliance(s.nowFn()).ID
}

func (s *Session) RemoveAppliance(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.RemoveAppliance(id, s.nowFn())
}

func (s *Session) SetChecklistDone(id string, index int, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.SetChecklistDone(id, index, done, s.nowFn())
}

// AttachPlacementPhoto encodes the uploaded image and stores it as the
// appliance's single placement photo. An encode failure leaves the job
// untouched.
func (s *Session) AttachPlacementPhoto(id string, r io.Reader) error {
	img, err := photo.EncodeDataURL(r)
	if err != nil {
		return WrapError(err, ErrCapture, "encode placement photo")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.AttachPlacementPhoto(id, img, s.nowFn())
}

// AttachDamagePhoto encodes and appends one damage photo.
func (s *Session) AttachDamagePhoto(id string, r io.Reader) error {
	img, err := photo.EncodeDataURL(r)
	if err != nil {
		return WrapError(err, ErrCapture, "encode damage photo")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.AttachDamagePhotos(id, []job.Image{img}, s.nowFn())
}

// AttachIntakeImage encodes and appends a work-order image.
func (s *Session) AttachIntakeImage(r io.Reader) error {
	img, err := photo.EncodeDataURL(r)
	if err != nil {
		return WrapError(err, ErrCapture, "encode intake image")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.AttachIntakeImage(img, s.nowFn())
	return nil
}

// SignatureStroke draws onto the pad. The signature reaches the job
// record at Save.
func (s *Session) SignatureStroke(points []signature.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pad.Stroke(points)
}

func (s *Session) ClearSignature() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pad.Clear()
}

// Start stamps the job start, waiting a bounded time for a location
// fix. A missing fix never blocks or fails the start.
func (s *Session) Start(ctx context.Context) {
	fix := geo.Capture(ctx, s.locator, s.gpsWait)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Start(s.nowFn(), fix)
}

func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Finish(s.nowFn())
}

// Save persists the whole record. The address guard mirrors the
// capture flow: a record without a project address is never stored.
// The current pad signature is synced into the record first.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.current.Address) == "" {
		return NewValidationError([]validate.Issue{{Message: "Project Address is required."}})
	}

	if err := s.syncSignatureLocked(); err != nil {
		return err
	}
	s.current.Touch(s.nowFn())

	if err := s.store.Put(ctx, s.current); err != nil {
		return WrapError(err, ErrPersistence, "save job")
	}
	return nil
}

// syncSignatureLocked copies the pad's current drawing into the
// record, clearing the stored signature when the pad is blank.
// Callers must hold s.mu.
func (s *Session) syncSignatureLocked() error {
	if s.pad.CurrentImageOrNull() == nil {
		s.current.Signature = ""
		return nil
	}
	dataURL, err := s.pad.DataURL()
	if err != nil {
		return WrapError(err, ErrCapture, "encode signature")
	}
	s.current.Signature = job.Image(dataURL)
	return nil
}

// Export validates the current record and renders the proof document.
// In-progress state (the pad signature) is synced into the record
// first, the way the capture form syncs before validating. Any issue
// blocks the export entirely; the issue list travels on the returned
// error.
func (s *Session) Export(generatedAt time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncSignatureLocked(); err != nil {
		return nil, err
	}
	if issues := validate.Validate(s.current); len(issues) > 0 {
		return nil, NewValidationError(issues)
	}
	out, err := s.builder.Build(s.current, generatedAt)
	if err != nil {
		return nil, WrapError(err, ErrRender, "render proof document")
	}
	return out, nil
}

// ApplyImport fills empty job fields from extracted work-order text.
// Existing values always win. Appliance hints reuse the single blank
// default appliance before appending new ones; the first model number
// lands on the first appliance if its model is empty.
func (s *Session) ApplyImport(f extract.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	j := s.current

	if j.Address == "" && f.Address != "" {
		j.Address = f.Address
	}
	if j.ContactName == "" && f.ContactName != "" {
		j.ContactName = f.ContactName
	}
	if j.ContactPhone == "" && f.ContactPhone != "" {
		j.ContactPhone = f.ContactPhone
	}
	if j.CompanyEmail == "" && f.CompanyEmail != "" {
		j.CompanyEmail = f.CompanyEmail
	}
	if j.ScheduledDT == "" && f.ScheduledDT != "" {
		j.ScheduledDT = f.ScheduledDT
	}

	for i, hint := range f.ApplianceHints {
		if i == 0 && len(j.Appliances) == 1 && blankAppliance(j.Appliances[0]) {
			_ = j.SetApplianceType(j.Appliances[0].ID, job.ApplianceType(hint), now)
			continue
		}
		a := j.AddAppliance(now)
		_ = j.SetApplianceType(a.ID, job.ApplianceType(hint), now)
	}

	if len(f.Models) > 0 && j.Appliances[0].Model == "" {
		j.Appliances[0].Model = f.Models[0]
	}
	j.Touch(now)
}

// blankAppliance reports whether the appliance is still the untouched
// default that New seeds.
func blankAppliance(a *job.Appliance) bool {
	return a.Model == "" && a.Serial == "" && a.PlacementPhoto == ""
}

// Jobs lists stored records, most recently updated first.
func (s *Session) Jobs(ctx context.Context) ([]*job.Job, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, WrapError(err, ErrPersistence, "list jobs")
	}
	return all, nil
}

func (s *Session) DeleteJob(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return WrapError(err, ErrPersistence, "delete job")
	}
	return nil
}

func (s *Session) ClearJobs(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return WrapError(err, ErrPersistence, "clear jobs")
	}
	return nil
}
