package utils

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/remote"
)

// HTTPStatus associe une erreur de la couche d'accès aux données à un code HTTP.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, errs.ErrConsistency):
		return http.StatusInternalServerError
	}

	switch errs.KindOf(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

// RespondError répond {"error": message} avec le code associé à err et
// journalise l'erreur. Les ressources orphelines sont renvoyées au client.
func RespondError(c *gin.Context, err error, message string, fields map[string]interface{}) {
	status := HTTPStatus(err)

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["route"] = c.FullPath()
	fields["status"] = status
	fields["error"] = err.Error()
	if id := UserID(c); id != "" {
		fields["userID"] = id
	}

	body := gin.H{"error": message}
	if errors.Is(err, errs.ErrConsistency) {
		body["consistency"] = true
	}
	if res := errs.ResourcesOf(err); len(res) > 0 {
		body["orphaned"] = res
		fields["resources"] = res
	}

	level := "WARN"
	if status >= http.StatusInternalServerError {
		level = "ERROR"
	}
	logs.LogJSON(level, message, fields)

	c.AbortWithStatusJSON(status, body)
}

// UserID renvoie l'id du compte authentifié, "" si la requête est anonyme.
func UserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}

// Clés posées dans le contexte gin par le middleware d'authentification.
const (
	KeyUserID    = "user_id"
	KeySessionID = "session_id"
	KeySession   = "session"
)

// Session renvoie la session plateforme et sa clé, nil si la requête est anonyme.
func Session(c *gin.Context) (*remote.Session, string) {
	v, ok := c.Get(KeySession)
	if !ok {
		return nil, ""
	}
	s, _ := v.(*remote.Session)
	return s, c.GetString(KeySessionID)
}
