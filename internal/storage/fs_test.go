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

package storage

import (
	"path"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/briefbote/internal/crypto"
)

// testFolder is the attachment folder of the storage suites.
const testFolder = "/test/attachments"

func TestNewFilesystem(t *testing.T) {
	assert.IsType(t, &afero.OsFs{}, NewFilesystem())
}

// baseStorageTestSuite provides an in-memory filesystem. Its helpers take store-relative paths
// in the form of descriptor paths.
type baseStorageTestSuite struct {
	suite.Suite

	fs    afero.Fs
	idGen *crypto.MockIDGenerator
}

func (s *baseStorageTestSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.idGen = new(crypto.MockIDGenerator)
}

func (s *baseStorageTestSuite) TearDownTest() {
	mock.AssertExpectationsForObjects(s.T(), s.idGen)
}

func (s *baseStorageTestSuite) writeStored(storePath, content string) {
	s.Require().NoError(afero.WriteFile(s.fs, path.Join(testFolder, storePath), []byte(content), 0600))
}

func (s *baseStorageTestSuite) touchStored(storePath string, modTime time.Time) {
	s.Require().NoError(s.fs.Chtimes(path.Join(testFolder, storePath), modTime, modTime))
}

func (s *baseStorageTestSuite) assertStored(storePath, expected string) {
	actual, err := afero.ReadFile(s.fs, path.Join(testFolder, storePath))
	s.Require().NoError(err, storePath)
	s.Assert().Equal(expected, string(actual), storePath)
}

func (s *baseStorageTestSuite) assertNotStored(storePath string) {
	exists, err := afero.Exists(s.fs, path.Join(testFolder, storePath))
	s.Require().NoError(err)
	s.Assert().False(exists, storePath)
}
