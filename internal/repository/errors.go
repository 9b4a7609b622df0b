package repository

import "errors"

// ErrStateConflict 评论状态已变化，更新未命中
var ErrStateConflict = errors.New("record is not in the expected state")
