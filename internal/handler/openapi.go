package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"github.com/kube-rca/graylog-relay/docs"
	"github.com/kube-rca/graylog-relay/internal/model"
)

// OpenAPIDoc godoc
// @Summary OpenAPI 문서
// @Description swag 레지스트리에 등록된 문서를 JSON으로 반환
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} model.ErrorResponse
// @Router /openapi.json [get]
func OpenAPIDoc(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
