package lib

import "time"

// TimeNow 当前时间，测试中可替换
var TimeNow = time.Now

// UnixMilli 毫秒时间戳
func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}
