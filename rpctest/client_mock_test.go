package rpctest_test

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/luci/go-render/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/rpctest/rpctest"
)

func response(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       ioutil.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestRequestShape(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	httpClient := rpctest.NewMockHTTPClient(mockCtrl)
	client := rpctest.NewClient(rpctest.ClientConfig{BaseURL: "http://rpctest:8080/", HTTPClient: httpClient})

	httpClient.EXPECT().Do(gomock.Any()).Do(func(req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "http://rpctest:8080/test", req.URL.String())
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
	}).Return(response(http.StatusOK, `{"success":true,"test_id":"t1"}`), nil)

	httpClient.EXPECT().Do(gomock.Any()).Do(func(req *http.Request) {
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/test/t1", req.URL.Path)
		assert.Empty(t, req.Header.Get("Content-Type"))
	}).Return(response(http.StatusOK, `{"success":true}`), nil)

	ctx := context.Background()
	handle, err := client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)
	require.NoError(t, client.DeleteTest(ctx, handle))
}

func TestNoRetry(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	httpClient := rpctest.NewMockHTTPClient(mockCtrl)
	client := rpctest.NewClient(rpctest.ClientConfig{HTTPClient: httpClient})

	// Exactly one call each: failures are reported, not retried.
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection reset")).Times(1)
	_, err := client.GetStatus(context.Background(), rpctest.TestHandle{TestID: "t1"})
	assert.True(t, rpctest.IsNetworkError(err), render.Render(err))

	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusBadGateway, "upstream"), nil).Times(1)
	_, err = client.GetStatus(context.Background(), rpctest.TestHandle{TestID: "t1"})
	require.True(t, rpctest.IsStatusError(err), render.Render(err))
	assert.Equal(t, "upstream", err.(*rpctest.StatusError).Body)
}

func TestMalformedResponses(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	httpClient := rpctest.NewMockHTTPClient(mockCtrl)
	client := rpctest.NewClient(rpctest.ClientConfig{HTTPClient: httpClient})
	ctx := context.Background()
	handle := rpctest.TestHandle{TestID: "t1"}

	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, "not json"), nil)
	_, err := client.CreateTest(ctx, rpctest.SimpleTestConfig())
	assert.Error(t, err)

	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, "{"), nil)
	_, err = client.GetStatus(ctx, handle)
	assert.Error(t, err)

	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, "<html>"), nil)
	_, err = client.ListTests(ctx)
	assert.Error(t, err)

	// A body with neither an array nor a "tests" member comes back as is.
	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, `{"count":0}`), nil)
	raw, err := client.ListTests(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0}`, string(raw))

	// Health only depends on the status code.
	httpClient.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, "OK"), nil)
	info, err := client.HealthCheck(ctx)
	require.NoError(t, err)
	assert.Empty(t, info.Service)
}
