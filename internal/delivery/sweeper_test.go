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

package delivery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/models"
	"github.com/lukasdietrich/briefbote/internal/storage"
)

func TestSweeperTestSuite(t *testing.T) {
	suite.Run(t, new(SweeperTestSuite))
}

type SweeperTestSuite struct {
	suite.Suite

	ctx         context.Context
	fs          afero.Fs
	attachments storage.Attachments
	pins        *Pins

	sweeper *Sweeper
}

func (s *SweeperTestSuite) SetupTest() {
	opts := storage.AttachmentsOptions{
		Foldername: "/data/attachments",
		MaxSize:    1024,
		MaxAge:     time.Hour,
	}

	var err error

	s.ctx = context.Background()
	s.fs = afero.NewMemMapFs()
	s.attachments, err = storage.NewAttachments(s.fs, crypto.NewIDGenerator(), opts)
	s.Require().NoError(err)

	s.pins = NewPins()
	s.sweeper = NewSweeper(s.attachments, s.pins, opts)
}

func (s *SweeperTestSuite) store(age time.Duration) models.AttachmentDescriptor {
	desc, err := s.attachments.Store(s.ctx, 1, strings.NewReader("content"), "a.txt", "")
	s.Require().NoError(err)

	modTime := time.Now().Add(-age)
	s.Require().NoError(s.fs.Chtimes("/data/attachments/"+desc.Path, modTime, modTime))

	return desc
}

func (s *SweeperTestSuite) exists(desc models.AttachmentDescriptor) bool {
	exists, err := s.attachments.Exists(s.ctx, desc)
	s.Require().NoError(err)
	return exists
}

func (s *SweeperTestSuite) TestSweep() {
	fresh := s.store(time.Minute)
	expired := s.store(2 * time.Hour)
	pinned := s.store(3 * time.Hour)

	s.pins.Pin([]string{pinned.Path})

	deleted, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(1, deleted)

	s.Assert().True(s.exists(fresh))
	s.Assert().False(s.exists(expired))
	s.Assert().True(s.exists(pinned))
}

func (s *SweeperTestSuite) TestSweepEmpty() {
	deleted, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Assert().Zero(deleted)
}
