package api_test

import (
	"context"
	"io"

	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/job"
	"github.com/jonesrussell/roster/internal/service"
)

type mockContactService struct {
	listFunc         func() ([]domain.ContactRecord, error)
	searchFunc       func(name, location string) ([]domain.ContactRecord, error)
	paginateFunc     func(skip, limit *int) (service.Page, error)
	getFunc          func(id int64) (domain.ContactRecord, error)
	createFunc       func(in domain.ContactInput) (domain.ContactRecord, error)
	updateFunc       func(id int64, fields map[string]any) (domain.ContactRecord, error)
	deleteByNameFunc func(name string) (int64, error)
	deleteByIDFunc   func(id int64) error
	positionsFunc    func() ([]database.PositionCount, error)
	exportFunc       func(format service.ExportFormat, w io.Writer) error
}

func (m *mockContactService) List(context.Context) ([]domain.ContactRecord, error) {
	if m.listFunc != nil {
		return m.listFunc()
	}
	return []domain.ContactRecord{}, nil
}

func (m *mockContactService) Search(_ context.Context, name, location string) ([]domain.ContactRecord, error) {
	if m.searchFunc != nil {
		return m.searchFunc(name, location)
	}
	return []domain.ContactRecord{}, nil
}

func (m *mockContactService) Paginate(_ context.Context, skip, limit *int) (service.Page, error) {
	if m.paginateFunc != nil {
		return m.paginateFunc(skip, limit)
	}
	return service.Page{Items: []domain.ContactRecord{}}, nil
}

func (m *mockContactService) Get(_ context.Context, id int64) (domain.ContactRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return domain.ContactRecord{ID: id}, nil
}

func (m *mockContactService) Create(_ context.Context, in domain.ContactInput) (domain.ContactRecord, error) {
	if m.createFunc != nil {
		return m.createFunc(in)
	}
	return domain.ContactRecord{ID: 1, Name: in.Name}, nil
}

func (m *mockContactService) Update(_ context.Context, id int64, fields map[string]any) (domain.ContactRecord, error) {
	if m.updateFunc != nil {
		return m.updateFunc(id, fields)
	}
	return domain.ContactRecord{ID: id}, nil
}

func (m *mockContactService) DeleteByName(_ context.Context, name string) (int64, error) {
	if m.deleteByNameFunc != nil {
		return m.deleteByNameFunc(name)
	}
	return 1, nil
}

func (m *mockContactService) DeleteByID(_ context.Context, id int64) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(id)
	}
	return nil
}

func (m *mockContactService) Positions(context.Context) ([]database.PositionCount, error) {
	if m.positionsFunc != nil {
		return m.positionsFunc()
	}
	return []database.PositionCount{}, nil
}

func (m *mockContactService) Export(_ context.Context, format service.ExportFormat, w io.Writer) error {
	if m.exportFunc != nil {
		return m.exportFunc(format, w)
	}
	return nil
}

type mockCrawlRunner struct {
	startFunc   func(triggeredBy string) (domain.CrawlRun, error)
	runSyncFunc func(triggeredBy string) (domain.CrawlRun, error)
	status      job.Status
	getRunFunc  func(id string) (domain.CrawlRun, error)
	historyFunc func(limit int) ([]domain.CrawlRun, error)
}

func (m *mockCrawlRunner) Start(_ context.Context, triggeredBy string) (domain.CrawlRun, error) {
	if m.startFunc != nil {
		return m.startFunc(triggeredBy)
	}
	return domain.CrawlRun{}, nil
}

func (m *mockCrawlRunner) RunSync(_ context.Context, triggeredBy string) (domain.CrawlRun, error) {
	if m.runSyncFunc != nil {
		return m.runSyncFunc(triggeredBy)
	}
	return domain.CrawlRun{}, nil
}

func (m *mockCrawlRunner) Status() job.Status {
	return m.status
}

func (m *mockCrawlRunner) GetRun(_ context.Context, id string) (domain.CrawlRun, error) {
	if m.getRunFunc != nil {
		return m.getRunFunc(id)
	}
	return domain.CrawlRun{ID: id}, nil
}

func (m *mockCrawlRunner) History(_ context.Context, limit int) ([]domain.CrawlRun, error) {
	if m.historyFunc != nil {
		return m.historyFunc(limit)
	}
	return []domain.CrawlRun{}, nil
}
