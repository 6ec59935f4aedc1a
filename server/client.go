package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a remote build service.
type Client struct {
	check    *connect.Client[CheckRequest, CheckResponse]
	run      *connect.Client[RunRequest, RunResponse]
	generate *connect.Client[GenerateRequest, GenerateResponse]
}

// NewClient returns a Client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	codec := connect.WithCodec(newCBORCodec())
	return &Client{
		check:    connect.NewClient[CheckRequest, CheckResponse](httpClient, baseURL+CheckProcedure, codec),
		run:      connect.NewClient[RunRequest, RunResponse](httpClient, baseURL+RunProcedure, codec),
		generate: connect.NewClient[GenerateRequest, GenerateResponse](httpClient, baseURL+GenerateProcedure, codec),
	}
}

func (c *Client) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	res, err := c.check.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	res, err := c.run.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	res, err := c.generate.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
