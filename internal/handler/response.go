package handler // handler defines http handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
)

// Client-visible messages.  They stay generic: causes are logged, never
// returned.
const (
	MsgInvalidBody        = "requête invalide"
	MsgInvalidID          = "identifiant invalide"
	MsgValidation         = "champ requis manquant ou invalide"
	MsgNotFound           = "ressource introuvable"
	MsgConflict           = "ce slug est déjà utilisé"
	MsgInternal           = "erreur interne"
	MsgCredentialsMissing = "nom d'utilisateur et mot de passe requis"
	MsgBadCredentials     = "identifiants invalides"
	MsgTooManyAttempts    = "trop de tentatives, réessayez plus tard"
	MsgDeleted            = "supprimé avec succès"
	MsgNoFile             = "aucune image reçue"
	MsgFileTooLarge       = "fichier trop volumineux"
	MsgUnsupportedType    = "type de fichier non autorisé"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Success: false, Message: msg})
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// storeError translates a repository or validation error into a response.
// Anything unrecognised is logged and answered with 500.
func storeError(c echo.Context, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		logger.Debug("validation failed", slog.String("path", c.Path()), slog.Any("error", err))
		return fail(c, http.StatusBadRequest, MsgValidation)
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, MsgConflict)
	}
	logger.Error("request failed",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
		slog.Any("error", err))
	return fail(c, http.StatusInternalServerError, MsgInternal)
}
