package consignment

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"logiledger/internal/config"
	"logiledger/internal/consignment/controller"
	"logiledger/internal/consignment/repository"
	"logiledger/internal/consignment/service"
	"logiledger/internal/consignment/usecase"
	"logiledger/internal/infrastructure/mysql"
)

func NewModule(db *sql.DB, cfg *config.Config, validate *validator.Validate, logger *zap.Logger) *controller.ConsignmentController {
	consignmentRepo := repository.NewMySQLConsignmentRepository(db)

	consignmentSvc := service.NewConsignmentService(
		mysql.NewTxManager(db),
		consignmentRepo,
		logger,
		cfg.Marketplace.TxTimeout,
	)

	uc := usecase.NewConsignmentUseCase(
		consignmentRepo,
		consignmentSvc,
		logger,
		cfg.Marketplace.MatchRadiusKm,
	)

	return controller.NewConsignmentController(uc, validate, logger)
}
