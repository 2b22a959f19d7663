package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "receivables-cli",
		Short: "Receivables ledger CLI tool",
		Long:  `A command line interface for interacting with the receivables ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the receivables API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	var rebuild bool
	debtorsCmd := &cobra.Command{
		Use:   "debtors",
		Short: "List customers with outstanding balances",
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/v1/ledger/debtors"
			if rebuild {
				path += "?rebuild=true"
			}
			getJSON(path)
		},
	}
	debtorsCmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild all projections from the entry table first")
	rootCmd.AddCommand(debtorsCmd)

	var from, to string
	ledgerCmd := &cobra.Command{
		Use:   "ledger <customer-id>",
		Short: "Show a customer's ledger with running balances",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/v1/customers/" + args[0] + "/ledger"
			sep := "?"
			if from != "" {
				path += sep + "from=" + from
				sep = "&"
			}
			if to != "" {
				path += sep + "to=" + to
			}
			getJSON(path)
		},
	}
	ledgerCmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	ledgerCmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	rootCmd.AddCommand(ledgerCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance <customer-id>",
		Short: "Show a customer's current balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/customers/" + args[0] + "/balance")
		},
	}
	rootCmd.AddCommand(balanceCmd)

	rebuildCmd := &cobra.Command{
		Use:   "rebuild <customer-id>",
		Short: "Rebuild a customer's balance projection from the entry table",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/ledger/projections/"+args[0]+"/rebuild", nil)
		},
	}
	rootCmd.AddCommand(rebuildCmd)

	consistencyCmd := &cobra.Command{
		Use:   "consistency <customer-id>",
		Short: "Compare a customer's projection against the entry sum",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency(args[0])
		},
		Args: cobra.ExactArgs(1),
	}
	rootCmd.AddCommand(consistencyCmd)

	var entryType, entryDate, entryDesc string
	var entryAmount int64
	entryCmd := &cobra.Command{
		Use:   "entry <customer-id>",
		Short: "Post a manual ledger entry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]any{
				"transaction_date": entryDate,
				"transaction_type": entryType,
				"amount":           entryAmount,
				"description":      entryDesc,
			}
			postJSON("/api/v1/customers/"+args[0]+"/ledger", body)
		},
	}
	entryCmd.Flags().StringVar(&entryType, "type", "payment", "Transaction type (carryover, payment, adjustment)")
	entryCmd.Flags().StringVar(&entryDate, "date", time.Now().Format("2006-01-02"), "Transaction date (YYYY-MM-DD)")
	entryCmd.Flags().Int64Var(&entryAmount, "amount", 0, "Amount in the smallest currency unit")
	entryCmd.Flags().StringVar(&entryDesc, "description", "", "Free-text description")
	rootCmd.AddCommand(entryCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func postJSON(path string, body map[string]any) {
	client := &http.Client{Timeout: timeout}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := client.Post(baseURL+path, "application/json", reader)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

func checkConsistency(customerID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/customers/" + customerID + "/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		fmt.Println("Consistency check PASSED")
	} else {
		fmt.Println("Consistency check FAILED: projection diverges from ledger")
	}
	fmt.Printf("Projected: %v\nCalculated: %v\n", result["projected_balance"], result["calculated_balance"])
}
