// Package web 内嵌留言板前端页面。
package web

import _ "embed"

//go:embed index.html
var indexHTML []byte

// IndexHTML 返回内嵌的首页内容。
func IndexHTML() []byte {
	return indexHTML
}
