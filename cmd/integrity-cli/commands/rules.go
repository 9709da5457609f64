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
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

func newRulesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <testID>",
		Short: "Print the effective violation rule set for a test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testID, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid test id")
			}

			data, err := apiRequest(http.MethodGet, "/api/v1/tests/"+testID.String()+"/rules", nil)
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}
}

func newRulesSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <testID>",
		Short: "Replace the violation rule set for a test from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testID, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid test id")
			}
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}

			content, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "could not read rule set file")
			}

			var ruleSet dtos.RuleSetDTO
			if err := json.Unmarshal(content, &ruleSet); err != nil {
				return errors.Wrap(err, "could not parse rule set file")
			}
			ruleSet.TestID = testID
			// validate locally before hitting the api, so a typo in the file
			// produces a field-level error instead of a 400
			if err := shared.V.Struct(ruleSet); err != nil {
				return errors.Wrap(err, "invalid rule set")
			}

			data, err := apiRequest(http.MethodPut, "/api/v1/tests/"+testID.String()+"/rules", ruleSet)
			if err != nil {
				return err
			}
			fmt.Println("rule set updated")
			return printJSON(data)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Path to the rule set JSON file")
	cmd.MarkFlagRequired("file") // nolint: errcheck
	return cmd
}

func NewRulesCommand() *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Manage per-test violation rule sets",
	}
	rules.AddCommand(newRulesGetCommand())
	rules.AddCommand(newRulesSetCommand())
	return rules
}
