package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/models"
)

// fakeBackend delegates to per-method funcs so each test scripts exactly the
// behavior it needs.
type fakeBackend struct {
	mu         sync.Mutex
	listFn     func(api.ListOptions) ([]models.Scan, error)
	createFn   func(api.CreateScanRequest) (*models.Scan, error)
	cancelFn   func(string) (bool, error)
	deleteFn   func(string) (bool, error)
	progressFn func(string) (*models.ScanProgress, error)
}

func (f *fakeBackend) ListScans(ctx context.Context, opts api.ListOptions) ([]models.Scan, error) {
	f.mu.Lock()
	fn := f.listFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("ListScans not scripted")
	}
	return fn(opts)
}

func (f *fakeBackend) CreateScan(ctx context.Context, req api.CreateScanRequest) (*models.Scan, error) {
	f.mu.Lock()
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("CreateScan not scripted")
	}
	return fn(req)
}

func (f *fakeBackend) CancelScan(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	fn := f.cancelFn
	f.mu.Unlock()
	if fn == nil {
		return false, errors.New("CancelScan not scripted")
	}
	return fn(id)
}

func (f *fakeBackend) DeleteScan(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	fn := f.deleteFn
	f.mu.Unlock()
	if fn == nil {
		return false, errors.New("DeleteScan not scripted")
	}
	return fn(id)
}

func (f *fakeBackend) GetProgress(ctx context.Context, id string) (*models.ScanProgress, error) {
	f.mu.Lock()
	fn := f.progressFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("GetProgress not scripted")
	}
	return fn(id)
}

// setList swaps the list response; used to move a scripted backend through a
// status sequence.
func (f *fakeBackend) setList(scans []models.Scan, err error) {
	f.mu.Lock()
	f.listFn = func(api.ListOptions) ([]models.Scan, error) {
		return scans, err
	}
	f.mu.Unlock()
}

func scan(id string, status models.ScanStatus) models.Scan {
	return models.Scan{
		ID:      id,
		Status:  status,
		Target:  "192.168.1.0/24",
		Profile: models.ProfileQuick,
	}
}
