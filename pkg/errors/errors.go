package errors

import "errors"

// ErrStorage 持久化失败：由服务层包装仓储错误后向上返回，不自动重试
var ErrStorage = errors.New("存储操作失败")
