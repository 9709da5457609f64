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
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/veriskill/integrity-engine/dtos"
)

func newReviewsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending disqualification decisions and flagged plagiarism analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodGet, "/api/v1/reviews/pending", nil)
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
}

func newReviewsResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <decisionID>",
		Short: "Resolve a disqualification decision (approve, reject or appeal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decisionID, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid decision id")
			}
			status, err := cmd.Flags().GetString("status")
			if err != nil {
				return err
			}
			reviewer, err := cmd.Flags().GetString("reviewer")
			if err != nil {
				return err
			}
			notes, err := cmd.Flags().GetString("notes")
			if err != nil {
				return err
			}

			data, err := apiRequest(http.MethodPost, "/api/v1/reviews/"+decisionID.String(), dtos.ResolveReviewDTO{
				ReviewerID: reviewer,
				Status:     dtos.ReviewStatus(status),
				Notes:      notes,
			})
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
	cmd.Flags().String("status", "", "Resolution: approved, rejected or appealed")
	cmd.Flags().String("reviewer", "", "Identity of the acting reviewer")
	cmd.Flags().String("notes", "", "Justification recorded in the audit trail")
	cmd.MarkFlagRequired("status")   // nolint: errcheck
	cmd.MarkFlagRequired("reviewer") // nolint: errcheck
	return cmd
}

func NewReviewsCommand() *cobra.Command {
	reviews := &cobra.Command{
		Use:   "reviews",
		Short: "Work the human review queue",
	}
	reviews.AddCommand(newReviewsListCommand())
	reviews.AddCommand(newReviewsResolveCommand())
	return reviews
}
