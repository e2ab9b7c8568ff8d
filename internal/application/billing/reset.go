package billing

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

// ResetConfirmationPhrase es la frase exacta que el operador debe escribir
// para ejecutar el reinicio de facturación. Sensible a mayúsculas: "eliminar
// todo" no cuenta. La operación borra comprobantes y notas de crédito y pone
// los secuenciales en cero; un sí/no no basta para algo irreversible.
const ResetConfirmationPhrase = "ELIMINAR TODO"

// ResetBillingUseCase purga el sistema de facturación de un restaurante.
type ResetBillingUseCase struct {
	txRunner  BillingTxRunner
	refresher ConfigRefresher
}

// NewResetBillingUseCase construye el caso de uso. refresher puede ser nil.
func NewResetBillingUseCase(txRunner BillingTxRunner, refresher ConfigRefresher) *ResetBillingUseCase {
	return &ResetBillingUseCase{txRunner: txRunner, refresher: refresher}
}

// Reset ejecuta la purga si la frase de confirmación es exacta.
// Todo ocurre en una transacción: o se borra todo o no se borra nada.
func (uc *ResetBillingUseCase) Reset(ctx context.Context, restaurantID, confirmation string) error {
	if confirmation != ResetConfirmationPhrase {
		return domain.ErrWrongConfirmation
	}

	err := uc.txRunner.RunReset(ctx, func(
		billRepo repository.BillRepository,
		noteRepo repository.CreditNoteRepository,
		orderRepo repository.OrderRepository,
		restaurantRepo repository.RestaurantRepository,
	) error {
		// Notas antes que comprobantes (FK), luego desmarcar órdenes y
		// reiniciar contadores.
		if err := noteRepo.DeleteByRestaurant(ctx, restaurantID); err != nil {
			return err
		}
		if err := billRepo.DeleteByRestaurant(ctx, restaurantID); err != nil {
			return err
		}
		if err := orderRepo.UnmarkAllBilled(ctx, restaurantID); err != nil {
			return err
		}
		return restaurantRepo.ResetSequences(ctx, restaurantID)
	})
	if err != nil {
		return err
	}

	if uc.refresher != nil {
		if rErr := uc.refresher.Refresh(ctx, restaurantID); rErr != nil {
			log.Warn().Err(rErr).Msg("No se pudo refrescar la configuración tras el reinicio")
		}
	}
	log.Warn().Str("restaurante", restaurantID).Msg("Sistema de facturación reiniciado")
	return nil
}
