/*
postcheck - validate a claim-payment posting against a reference database

PURPOSE:
  Developer tooling for plugin authors: run the exact validation the SDK runs
  at emission time, against a local SQLite reference database, and print the
  effect that would be sent to the host (or every validation finding).

USAGE:
  # Build a demo reference database and print the generated ids
  postcheck -db ./reference.db -seed-demo

  # Validate a posting file and print the emitted effect JSON
  postcheck -db ./reference.db -posting ./posting.json

POSTING FILE:
  {
    "method": "check",
    "check_number": "123445",
    "check_date": "2025-10-27",
    "deposit_date": "2025-10-27",
    "payment_description": "",
    "total_collected": "20.00",
    "posting_description": "",
    "allocations": [{
      "claim_id": "...",
      "claim_coverage_id": "patient",
      "move_to_queue_name": "",
      "description": "",
      "line_item_transactions": [{
        "claim_line_item_id": "...",
        "payment": "20.00",
        "adjustment": null,
        "adjustment_code": "",
        "allowed": null,
        "transfer_remaining_balance_to": "",
        "write_off": false
      }]
    }]
  }
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carelane/effectkit/claims"
	"github.com/carelane/effectkit/record"
	"github.com/carelane/effectkit/store/sqlite"
)

func main() {
	var (
		dbPath      = flag.String("db", "reference.db", "path to the SQLite reference database")
		postingPath = flag.String("posting", "", "path to a posting JSON file to validate")
		seedDemo    = flag.Bool("seed-demo", false, "seed the database with a demo claim and exit")
	)
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("open reference db: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if *seedDemo {
		if err := seed(ctx, store); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
		return
	}

	if *postingPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := check(ctx, store, *postingPath); err != nil {
		var vf *record.ValidationFailure
		if errors.As(err, &vf) {
			fmt.Fprintln(os.Stderr, vf.Error())
			os.Exit(1)
		}
		log.Fatalf("postcheck: %v", err)
	}
}

func seed(ctx context.Context, store *sqlite.Store) error {
	claimID, err := store.SeedClaim(ctx, "")
	if err != nil {
		return err
	}
	coverageID, err := store.SeedCoverage(ctx, claimID, claims.Coverage{
		PayerID:          "payer-aetna",
		SubscriberNumber: "SUB-001",
	})
	if err != nil {
		return err
	}
	lineItemID, err := store.SeedLineItem(ctx, claimID, claims.LineItem{ProcCode: "99213"})
	if err != nil {
		return err
	}
	copayID, err := store.SeedLineItem(ctx, claimID, claims.LineItem{ProcCode: claims.CopayProcCode})
	if err != nil {
		return err
	}
	if err := store.SeedQueue(ctx, "NeedsReview"); err != nil {
		return err
	}

	fmt.Printf("claim_id:           %s\n", claimID)
	fmt.Printf("claim_coverage_id:  %s\n", coverageID)
	fmt.Printf("claim_line_item_id: %s\n", lineItemID)
	fmt.Printf("copay_line_item_id: %s\n", copayID)
	fmt.Printf("queue:              NeedsReview\n")
	return nil
}

// =============================================================================
// POSTING FILE DECODING
// =============================================================================

type postingFile struct {
	Method             string           `json:"method"`
	CheckNumber        string           `json:"check_number"`
	CheckDate          string           `json:"check_date"`
	DepositDate        string           `json:"deposit_date"`
	PaymentDescription string           `json:"payment_description"`
	TotalCollected     string           `json:"total_collected"`
	PostingDescription string           `json:"posting_description"`
	Allocations        []allocationFile `json:"allocations"`
}

type allocationFile struct {
	ClaimID              string            `json:"claim_id"`
	ClaimCoverageID      string            `json:"claim_coverage_id"`
	PayerID              string            `json:"payer_id"`
	SubscriberNumber     string            `json:"subscriber_number"`
	MoveToQueueName      string            `json:"move_to_queue_name"`
	Description          string            `json:"description"`
	LineItemTransactions []transactionFile `json:"line_item_transactions"`
}

type transactionFile struct {
	ClaimLineItemID            string  `json:"claim_line_item_id"`
	Charged                    *string `json:"charged"`
	Allowed                    *string `json:"allowed"`
	Payment                    *string `json:"payment"`
	Adjustment                 *string `json:"adjustment"`
	AdjustmentCode             string  `json:"adjustment_code"`
	TransferRemainingBalanceTo string  `json:"transfer_remaining_balance_to"`
	WriteOff                   bool    `json:"write_off"`
}

func check(ctx context.Context, store *sqlite.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file postingFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode posting file: %w", err)
	}

	posting := claims.NewPostClaimPayment(store)
	posting.SetMethod(claims.PaymentMethod(file.Method))

	total, err := decimal.NewFromString(file.TotalCollected)
	if err != nil {
		return fmt.Errorf("total_collected: %w", err)
	}
	posting.SetTotalCollected(total)

	if file.CheckNumber != "" {
		posting.SetCheckNumber(file.CheckNumber)
	}
	if d, ok, err := parseDate(file.CheckDate); err != nil {
		return fmt.Errorf("check_date: %w", err)
	} else if ok {
		posting.SetCheckDate(d)
	}
	if d, ok, err := parseDate(file.DepositDate); err != nil {
		return fmt.Errorf("deposit_date: %w", err)
	} else if ok {
		posting.SetDepositDate(d)
	}
	if file.PaymentDescription != "" {
		posting.SetPaymentDescription(file.PaymentDescription)
	}
	if file.PostingDescription != "" {
		posting.SetPostingDescription(file.PostingDescription)
	}

	for _, a := range file.Allocations {
		alloc := claims.ClaimAllocation{
			ClaimID:          a.ClaimID,
			ClaimCoverageID:  a.ClaimCoverageID,
			PayerID:          a.PayerID,
			SubscriberNumber: a.SubscriberNumber,
			MoveToQueueName:  a.MoveToQueueName,
			Description:      a.Description,
		}
		for _, t := range a.LineItemTransactions {
			tx := claims.LineItemTransaction{
				ClaimLineItemID:            t.ClaimLineItemID,
				AdjustmentCode:             t.AdjustmentCode,
				TransferRemainingBalanceTo: t.TransferRemainingBalanceTo,
				WriteOff:                   t.WriteOff,
			}
			if tx.Charged, err = parseAmount(t.Charged); err != nil {
				return fmt.Errorf("charged: %w", err)
			}
			if tx.Allowed, err = parseAmount(t.Allowed); err != nil {
				return fmt.Errorf("allowed: %w", err)
			}
			if tx.Payment, err = parseAmount(t.Payment); err != nil {
				return fmt.Errorf("payment: %w", err)
			}
			if tx.Adjustment, err = parseAmount(t.Adjustment); err != nil {
				return fmt.Errorf("adjustment: %w", err)
			}
			alloc.LineItemTransactions = append(alloc.LineItemTransactions, tx)
		}
		posting.AddAllocation(alloc)
	}

	effect, err := posting.Post(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(effect, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func parseDate(s string) (record.Date, bool, error) {
	if s == "" {
		return record.Date{}, false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return record.Date{}, false, err
	}
	return record.DateOf(t), true, nil
}

func parseAmount(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
