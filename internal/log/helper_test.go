// Copyright (C) 2026  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

// contextFields are the keys added by the With* helpers.
var contextFields = []string{"origin", "worker", "messageId", "tenantId"}

// baseLogTestSuite captures everything written to the global logger.
type baseLogTestSuite struct {
	suite.Suite

	buffer bytes.Buffer
}

func (s *baseLogTestSuite) SetupTest() {
	s.buffer.Reset()
	Logger = zerolog.New(&s.buffer).Level(zerolog.TraceLevel)
}

func (s *baseLogTestSuite) assertMsg(expected string) {
	s.Assert().Equal(expected, s.buffer.String())
}

// assertContext checks the context fields of the single logged entry. Numbers are compared as
// decoded by encoding/json.
func (s *baseLogTestSuite) assertContext(expected map[string]interface{}) {
	var entry map[string]interface{}
	s.Require().NoError(json.Unmarshal(s.buffer.Bytes(), &entry), s.buffer.String())

	actual := make(map[string]interface{})
	for _, key := range contextFields {
		if value, ok := entry[key]; ok {
			actual[key] = value
		}
	}

	s.Assert().Equal(expected, actual)
}
