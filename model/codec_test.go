package model

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCodec(t *testing.T) {
	m, _ := blockMatrix(t, false)
	model, err := NewALS(smallParams()).Fit(context.Background(), m)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeModel(&buf, model))

	got, err := DecodeModel(&buf)
	require.NoError(t, err)
	assert.Equal(t, model.Factors, got.Factors)
	assert.Equal(t, model.Users.Data, got.Users.Data)
	assert.Equal(t, model.Items.Data, got.Items.Data)
	assert.Equal(t, model.Params.Iterations, got.Params.Iterations)
	assert.True(t, model.TrainedAt.Equal(got.TrainedAt))
}

func TestDecodeModel_Garbage(t *testing.T) {
	_, err := DecodeModel(bytes.NewReader([]byte("not a model")))
	assert.Error(t, err)
}
