package tools

import (
	"context"
	"encoding/json"

	"github.com/sys3222/akshare-mcp-adapter/internal/cache"
	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/files"
	"github.com/sys3222/akshare-mcp-adapter/internal/model"
	"github.com/sys3222/akshare-mcp-adapter/internal/paginate"
	"github.com/sys3222/akshare-mcp-adapter/internal/upstream"
)

// fetchMarketDataArgs is fetch_market_data's parameter shape (§4.8).
type fetchMarketDataArgs struct {
	Interface string            `json:"interface"`
	Params    map[string]string `json:"params"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

// readMyFileArgs is read_my_file's parameter shape.
type readMyFileArgs struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

func fetchMarketDataSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"interface"},
		"properties": map[string]interface{}{
			"interface": map[string]interface{}{"type": "string"},
			"params":    map[string]interface{}{"type": "object"},
			"page":      map[string]interface{}{"type": "integer"},
			"page_size": map[string]interface{}{"type": "integer"},
		},
	}
}

// NewFetchMarketDataTool builds the fetch_market_data tool, backed by C5
// (cache, which consults C4 on a miss) and C6 (paginator).
func NewFetchMarketDataTool(cacheStore *cache.Store, invoker *upstream.Invoker) Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:            "fetch_market_data",
			Description:     "Fetch a page of a named upstream market-data interface.",
			ParameterSchema: fetchMarketDataSchema(),
		},
		Handler: func(ctx context.Context, caller string, raw json.RawMessage) (interface{}, error) {
			var args fetchMarketDataArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, errors.InvalidParams("malformed fetch_market_data arguments")
			}
			if args.Page == 0 {
				args.Page = 1
			}
			if args.PageSize == 0 {
				args.PageSize = 50
			}

			table, err := cacheStore.GetOrCompute(ctx, args.Interface, args.Params, func(ctx context.Context, interfaceName string, params map[string]string) (model.Table, error) {
				return invoker.Call(ctx, interfaceName, params)
			})
			if err != nil {
				return nil, err
			}
			return paginate.Paginate(table, args.Page, args.PageSize), nil
		},
	}
}

// NewListMyFilesTool builds the list_my_files tool, backed by C7.List.
func NewListMyFilesTool(fileStore *files.Store) Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "list_my_files",
			Description: "List the filenames the calling user has previously uploaded.",
			ParameterSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		Handler: func(ctx context.Context, caller string, raw json.RawMessage) (interface{}, error) {
			return fileStore.List(caller)
		},
	}
}

// NewReadMyFileTool builds the read_my_file tool, backed by C7.Open +
// CSV parsing + C6.
func NewReadMyFileTool(fileStore *files.Store) Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "read_my_file",
			Description: "Read a page of a file the calling user previously uploaded.",
			ParameterSchema: map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"filename"},
				"properties": map[string]interface{}{
					"filename":  map[string]interface{}{"type": "string"},
					"page":      map[string]interface{}{"type": "integer"},
					"page_size": map[string]interface{}{"type": "integer"},
				},
			},
		},
		Handler: func(ctx context.Context, caller string, raw json.RawMessage) (interface{}, error) {
			var args readMyFileArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, errors.InvalidParams("malformed read_my_file arguments")
			}
			if args.Page == 0 {
				args.Page = 1
			}
			if args.PageSize == 0 {
				args.PageSize = 50
			}

			f, err := fileStore.Open(caller, args.Filename)
			if err != nil {
				return nil, err
			}
			defer f.Close()

			table, err := files.ParseCSV(f)
			if err != nil {
				return nil, err
			}
			return paginate.Paginate(table, args.Page, args.PageSize), nil
		},
	}
}

// NewDescribeInterfacesTool builds the describe_interfaces tool, backed
// by C3.List.
func NewDescribeInterfacesTool(registry *upstream.Registry) Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "describe_interfaces",
			Description: "List the upstream market-data interfaces available to call.",
			ParameterSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		Handler: func(ctx context.Context, caller string, raw json.RawMessage) (interface{}, error) {
			return registry.Summaries(), nil
		},
	}
}
