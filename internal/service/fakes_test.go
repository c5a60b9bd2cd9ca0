package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/metrics"
	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/storage"
	"hipaa-compliance/internal/store/storetest"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (o *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if o.putErr != nil {
		return o.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = b
	return nil
}

func (o *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *memObjects) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

const testCatalog = `
version: "test-1"
defaults:
  options: ["yes", "partially compliant", "no", "not applicable", "unsure"]
tiers:
  medium: 30
  high: 60
questions:
  - id: ADM-001
    sequence: 1
    category: administrative
    severity: 5
    text: "Risk analysis completed?"
    evidence:
      required: true
      types: [document, attestation]
      required_if: "answer == 'yes' or answer == 'partially compliant'"
      retention_period: "6 years"
      legal_weight: high
      audit_trail_required: true
      timestamp_required: true
      signer_required: true
  - id: TEC-001
    sequence: 2
    category: technical
    severity: 3
    text: "Unique user identification?"
    evidence:
      required: true
      types: [screenshot, link]
  - id: TRN-001
    sequence: 3
    category: training
    severity: 2
    text: "Security awareness training?"
    evidence:
      required: false
      types: [structured_narrative]
`

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	store   *storetest.Memory
	objects *memObjects
	limiter *stubLimiter
	metrics *metrics.Metrics
	actor   Actor
	ids     int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testCatalog), catalog.Options{})
	require.NoError(t, err)

	h := &harness{
		store:   storetest.NewMemory(),
		objects: newMemObjects(),
		limiter: &stubLimiter{allow: true},
		metrics: metrics.New(),
		actor:   Actor{UserID: 42, IP: "10.0.0.1", UserAgent: "test"},
	}
	h.svc = New(Options{
		Store:          h.store,
		Catalog:        cat,
		Objects:        h.objects,
		Limiter:        h.limiter,
		Metrics:        h.metrics,
		MaxUploadBytes: 1024,
		Now:            func() time.Time { return testNow },
		NewID: func() string {
			h.ids++
			return fmt.Sprintf("item-%d", h.ids)
		},
	})
	return h
}

func (h *harness) onboard(t *testing.T, answers map[string]string) *AssessmentView {
	t.Helper()
	v, err := h.svc.CompleteOnboarding(context.Background(), h.actor, OrgInput{Name: "Acme Clinic", OrgType: models.OrgCoveredEntity}, answers)
	require.NoError(t, err)
	return v
}

func upload(name, body string) FileUpload {
	return FileUpload{
		Filename:    name,
		Size:        int64(len(body)),
		ContentType: "application/pdf",
		Body:        strings.NewReader(body),
	}
}
