package httpadapter

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var webFiles embed.FS

// staticFiles is web/static, served under /static/.
var staticFiles = mustSub(webFiles, "web/static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// handleChatPage serves the end-user chat UI.
func handleChatPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, webFiles, "web/index.html")
}
