package handlers

import (
	"encoding/json"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// ActorKey is where the actor middleware stores the resolved caller.
const ActorKey = "actor"

func actor(c *gin.Context) domain.Actor {
	if a, ok := c.Get(ActorKey); ok {
		if act, ok := a.(domain.Actor); ok {
			return act
		}
	}
	return domain.Actor{}
}

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindConflict:     http.StatusConflict,
	domain.KindInvalidState: http.StatusUnprocessableEntity,
	domain.KindForbidden:    http.StatusForbidden,
}

// writeError maps a core error to a status. Internal errors are logged and
// answered without details.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		obs.Logger(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "kind": kind.String()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "kind": domain.KindValidation.String()})
}

// strictJSON is binding.JSON with unknown fields rejected. It leaves gin's
// package-level decoder flags alone.
type strictJSON struct{}

func (strictJSON) Name() string { return "json" }

func (strictJSON) Bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.New("request has no body")
	}
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindWith(v, strictJSON{}); err != nil {
		badRequest(c, "invalid json body: "+err.Error())
		return false
	}
	return true
}
