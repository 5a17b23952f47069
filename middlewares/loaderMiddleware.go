package middlewares

import (
	"context"
	"reflect"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	WorkspaceLoader *dataloader.Loader[int, *models.Workspace]
	ReportLoader    *dataloader.Loader[int, *models.Report]
	BillingLoader   *dataloader.Loader[int, *models.Billing]
	CostLoader      *dataloader.Loader[int, *models.Cost]
}

// NewLoaders instantiates per-request data loaders.
func NewLoaders(db *gorm.DB) *Loaders {
	workspaceReader := &workspaceReader{db: db}
	reportReader := &reportReader{db: db}
	billingReader := &billingReader{db: db}
	costReader := &costReader{db: db}

	return &Loaders{
		WorkspaceLoader: dataloader.NewBatchedLoader(workspaceReader.getWorkspaces, dataloader.WithWait[int, *models.Workspace](time.Millisecond)),
		ReportLoader:    dataloader.NewBatchedLoader(reportReader.getReports, dataloader.WithWait[int, *models.Report](time.Millisecond)),
		BillingLoader:   dataloader.NewBatchedLoader(billingReader.getBillings, dataloader.WithWait[int, *models.Billing](time.Millisecond)),
		CostLoader:      dataloader.NewBatchedLoader(costReader.getCosts, dataloader.WithWait[int, *models.Cost](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	// generate resultMap from results
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}
