package job

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	bidrepo "logiledger/internal/bid/repository"
	"logiledger/internal/config"
	consignmentrepo "logiledger/internal/consignment/repository"
	"logiledger/internal/events"
	"logiledger/internal/infrastructure/mysql"
	"logiledger/internal/job/controller"
	"logiledger/internal/job/repository"
	"logiledger/internal/job/service"
	"logiledger/internal/job/usecase"
)

// NewModule wires the job feature. extractor may be nil, which disables
// invoice scanning.
func NewModule(
	db *sql.DB,
	cfg *config.Config,
	extractor usecase.Extractor,
	publisher events.Publisher,
	validate *validator.Validate,
	logger *zap.Logger,
) *controller.JobController {
	jobRepo := repository.NewMySQLJobRepository(db)
	bidRepo := bidrepo.NewMySQLBidRepository(db)
	consignmentRepo := consignmentrepo.NewMySQLConsignmentRepository(db)

	jobSvc := service.NewJobService(
		mysql.NewTxManager(db),
		jobRepo,
		consignmentRepo,
		logger,
		cfg.Marketplace.TxTimeout,
	)

	uc := usecase.NewJobUseCase(jobRepo, bidRepo, consignmentRepo, jobSvc, extractor, publisher, logger)

	return controller.NewJobController(uc, validate, logger)
}
