package bid

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"logiledger/internal/bid/controller"
	"logiledger/internal/bid/repository"
	"logiledger/internal/bid/service"
	"logiledger/internal/bid/usecase"
	"logiledger/internal/config"
	consignmentrepo "logiledger/internal/consignment/repository"
	"logiledger/internal/events"
	"logiledger/internal/infrastructure/mysql"
)

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	publisher events.Publisher,
	validate *validator.Validate,
	logger *zap.Logger,
) *controller.BidController {
	consignmentRepo := consignmentrepo.NewMySQLConsignmentRepository(db)
	bidRepo := repository.NewMySQLBidRepository(db)

	bidSvc := service.NewBidService(
		mysql.NewTxManager(db),
		consignmentRepo,
		bidRepo,
		logger,
		cfg.Marketplace.TxTimeout,
	)

	uc := usecase.NewBidUseCase(consignmentRepo, bidRepo, bidSvc, publisher, logger)

	return controller.NewBidController(uc, validate, logger)
}
