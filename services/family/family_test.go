// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package family

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemoryService(t *testing.T) {
	svc, err := New(Config{GinMode: "test"})
	require.NoError(t, err)
	defer svc.Close()

	require.NotNil(t, svc.Router())
	require.NotNil(t, svc.Store())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	svc.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigDefaults(t *testing.T) {
	cfg := applyConfigDefaults(Config{})
	assert.Equal(t, 12310, cfg.Port)
}
