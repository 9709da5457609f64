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

package commands

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPlagiarismGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <submissionID>",
		Short: "Print the plagiarism analysis report for a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			submissionID, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid submission id")
			}

			data, err := apiRequest(http.MethodGet, "/api/v1/submissions/"+submissionID.String()+"/plagiarism", nil)
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
}

func newPlagiarismRequeueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <submissionID>",
		Short: "Queue a submission for re-analysis, e.g. after an analyzer upgrade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			submissionID, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid submission id")
			}

			_, err = apiRequest(http.MethodPost, "/api/v1/submissions/"+submissionID.String()+"/plagiarism", nil)
			if err != nil {
				return err
			}
			fmt.Println("submission queued for analysis")
			return nil
		},
	}
}

func NewPlagiarismCommand() *cobra.Command {
	plagiarism := &cobra.Command{
		Use:   "plagiarism",
		Short: "Inspect and re-run plagiarism analyses",
	}
	plagiarism.AddCommand(newPlagiarismGetCommand())
	plagiarism.AddCommand(newPlagiarismRequeueCommand())
	return plagiarism
}
