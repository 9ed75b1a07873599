// Package camt reads ISO 20022 CAMT.053 bank statements.
package camt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

// Entry is one booked or pending movement of a statement.
type Entry struct {
	Date        time.Time
	Kind        models.Kind
	Amount      decimal.Decimal
	Currency    string
	Description string
	Reference   string
	Booked      bool
}

// Statement is the content of one CAMT.053 document.
type Statement struct {
	Account string
	Entries []Entry
}

// Parser decodes CAMT.053 documents
type Parser struct {
	log *logrus.Logger
}

// NewParser initializes a new CAMT parser
func NewParser(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// Parse reads a CAMT.053 document. Every <Ntry> of every <Stmt> becomes an Entry.
func (p *Parser) Parse(r io.Reader) (*Statement, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	statements := doc.FindElements("//BkToCstmrStmt/Stmt")
	if len(statements) == 0 {
		return nil, fmt.Errorf("no statement found in document")
	}

	out := &Statement{}
	for _, stmt := range statements {
		if out.Account == "" {
			out.Account = accountID(stmt)
		}
		for i, ntry := range stmt.SelectElements("Ntry") {
			entry, err := parseEntry(ntry)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			out.Entries = append(out.Entries, entry)
		}
	}

	p.log.Debugf("CAMT statement for %q: %d entries", out.Account, len(out.Entries))
	return out, nil
}

func accountID(stmt *etree.Element) string {
	for _, path := range []string{"./Acct/Id/IBAN", "./Acct/Id/Othr/Id"} {
		if el := stmt.FindElement(path); el != nil {
			return strings.TrimSpace(el.Text())
		}
	}
	return ""
}

func parseEntry(ntry *etree.Element) (Entry, error) {
	var e Entry

	amt := ntry.SelectElement("Amt")
	if amt == nil {
		return e, fmt.Errorf("amount element not found")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amt.Text()))
	if err != nil {
		return e, fmt.Errorf("failed to parse amount: %w", err)
	}
	if !amount.IsPositive() {
		return e, fmt.Errorf("amount must be positive, got %s", amount)
	}
	e.Amount = amount
	e.Currency = amt.SelectAttrValue("Ccy", "")

	switch text(ntry, "./CdtDbtInd") {
	case "CRDT":
		e.Kind = models.KindIncome
	case "DBIT":
		e.Kind = models.KindExpense
	default:
		return e, fmt.Errorf("unknown credit/debit indicator %q", text(ntry, "./CdtDbtInd"))
	}

	// Sts is a plain code in older versions and wraps <Cd> from version 8 on.
	status := text(ntry, "./Sts/Cd")
	if status == "" {
		status = text(ntry, "./Sts")
	}
	e.Booked = status != "PDNG"

	date := firstText(ntry, "./BookgDt/Dt", "./BookgDt/DtTm", "./ValDt/Dt", "./ValDt/DtTm")
	if date == "" {
		return e, fmt.Errorf("booking date not found")
	}
	if len(date) > len(calendar.DateLayout) {
		date = date[:len(calendar.DateLayout)]
	}
	if e.Date, err = calendar.ParseDate(date); err != nil {
		return e, err
	}

	e.Description = firstText(ntry,
		"./NtryDtls/TxDtls/RmtInf/Ustrd",
		"./AddtlNtryInf",
		"./NtryDtls/TxDtls/RltdPties/Cdtr/Nm",
		"./NtryDtls/TxDtls/RltdPties/Dbtr/Nm",
	)
	e.Reference = firstText(ntry, "./AcctSvcrRef", "./NtryRef", "./NtryDtls/TxDtls/Refs/EndToEndId")
	return e, nil
}

func text(el *etree.Element, path string) string {
	if found := el.FindElement(path); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

func firstText(el *etree.Element, paths ...string) string {
	for _, p := range paths {
		if t := text(el, p); t != "" {
			return t
		}
	}
	return ""
}
