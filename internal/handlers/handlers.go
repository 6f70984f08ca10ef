package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"
)

// sendServiceError отправляет клиенту ошибку сервиса.
// Ошибки инфраструктуры логируются и отдаются как 500 без подробностей.
func sendServiceError(w http.ResponseWriter, logger *log.Logger, err error) {
	logger.Println(err)

	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, services.InternalError)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("invalid request body")
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, method string) {
	utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only "+method+" is allowed")
}
