package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/files"
	"github.com/sys3222/akshare-mcp-adapter/internal/httputil"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/paginate"
	"github.com/sys3222/akshare-mcp-adapter/internal/service"
)

type handlers struct {
	c *service.Container
}

// issueToken handles POST /api/token: form username/password -> bearer
// token (§6).
func (h *handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, errors.InvalidParams("malformed form body"))
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.c.Credentials.Verify(r.Context(), username, password); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, _, err := h.c.Tokens.Issue(username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// whoAmI handles GET /api/users/me.
func (h *handlers) whoAmI(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"username": username})
}

// listInterfaces handles GET /api/mcp-data/interfaces.
func (h *handlers) listInterfaces(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.c.Registry.Summaries())
}

type fetchMarketDataRequest struct {
	Interface string            `json:"interface"`
	Params    map[string]string `json:"params"`
	RequestID string            `json:"request_id"`
}

// fetchMarketData handles POST /api/mcp-data?page&page_size.
func (h *handlers) fetchMarketData(w http.ResponseWriter, r *http.Request) {
	var req fetchMarketDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, errors.InvalidParams("malformed request body"))
		return
	}
	if !h.c.Registry.Has(req.Interface) {
		httputil.WriteError(w, errors.UnknownInterface("unknown upstream interface"))
		return
	}

	page, pageSize := pageParams(r)
	table, err := h.c.Cache.GetOrCompute(r.Context(), req.Interface, req.Params, h.c.Invoker.Call)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, paginate.Paginate(table, page, pageSize))
}

// uploadFile handles POST /api/data/upload (multipart file).
func (h *handlers) uploadFile(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, errors.InvalidParams("missing file part"))
		return
	}
	defer file.Close()

	filename, err := h.c.Files.Upload(username, header.Filename, file, header.Size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"filename": filename})
}

// listFiles handles GET /api/data/files.
func (h *handlers) listFiles(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())
	names, err := h.c.Files.List(username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, names)
}

// deleteFile handles DELETE /api/data/files/{filename}.
func (h *handlers) deleteFile(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())
	filename := mux.Vars(r)["filename"]

	if err := h.c.Files.Delete(username, filename); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exploreFile handles POST /api/data/explore/{filename}?page&page_size.
func (h *handlers) exploreFile(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())
	filename := mux.Vars(r)["filename"]
	page, pageSize := pageParams(r)

	f, err := h.c.Files.Open(username, filename)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer f.Close()

	table, err := files.ParseCSV(f)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, paginate.Paginate(table, page, pageSize))
}

type llmChatRequest struct {
	Prompt string `json:"prompt"`
}

// llmChat handles POST /api/llm/chat.
func (h *handlers) llmChat(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())
	var req llmChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, errors.InvalidParams("malformed request body"))
		return
	}

	env, err := h.c.Dispatcher.Analyze(r.Context(), req.Prompt, username, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"response": env.Summary})
}

type llmAnalyzeRequest struct {
	Query string `json:"query"`
}

// llmAnalyze handles POST /api/llm/analyze?use_llm.
func (h *handlers) llmAnalyze(w http.ResponseWriter, r *http.Request) {
	username, _ := logging.UserIDFromContext(r.Context())
	var req llmAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, errors.InvalidParams("malformed request body"))
		return
	}

	useLLM := r.URL.Query().Get("use_llm") != "false"
	env, err := h.c.Dispatcher.Analyze(r.Context(), req.Query, username, !useLLM)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, env)
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, pageSize
}
