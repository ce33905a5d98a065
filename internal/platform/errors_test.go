package platform

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

func TestFetchError_Error(t *testing.T) {
	t.Parallel()

	withStatus := &FetchError{
		Platform:   model.PlatformAlibaba,
		URL:        "https://www.alibaba.com/trade/search",
		StatusCode: 403,
	}
	assert.Equal(t, "alibaba: fetch https://www.alibaba.com/trade/search: status 403", withStatus.Error())

	transport := &FetchError{
		Platform: model.PlatformMadeInChina,
		URL:      "https://www.made-in-china.com",
		Err:      eris.New("connection refused"),
	}
	assert.Contains(t, transport.Error(), "connection refused")
}

func TestFetchError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := eris.New("timeout")
	err := fmt.Errorf("task failed: %w", &FetchError{Platform: model.PlatformAlibaba, Err: inner})

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.PlatformAlibaba, fe.Platform)
	assert.ErrorIs(t, err, inner)
}

func TestParseError_Error(t *testing.T) {
	t.Parallel()

	err := &ParseError{
		Platform: model.PlatformMadeInChina,
		URL:      "https://www.made-in-china.com/products-search",
		Err:      eris.New("malformed document"),
	}
	assert.Contains(t, err.Error(), "made-in-china: parse")
	assert.Contains(t, err.Error(), "malformed document")
}
