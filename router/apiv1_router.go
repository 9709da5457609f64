// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veriskill/integrity-engine/cmd/integrity/api"
)

type APIV1Router struct {
	*echo.Group
}

func NewAPIV1Router(srv api.Server) APIV1Router {
	srv.Echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1Router := srv.Echo.Group("/api/v1")
	apiV1Router.GET("/health", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	return APIV1Router{Group: apiV1Router}
}
