package handler

import (
	"errors"

	"talent-rank-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// writeStoreError 存储层错误的统一HTTP映射：记录不存在返回404，其余返回500
func writeStoreError(c *app.RequestContext, err error, msg string) {
	if errors.Is(err, types.ErrNotFound) {
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusInternalServerError, utils.H{"error": msg})
}
