package camt

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.053.001.02">
  <BkToCstmrStmt>
    <GrpHdr><MsgId>MSG-1</MsgId></GrpHdr>
    <Stmt>
      <Id>STMT-1</Id>
      <Acct><Id><IBAN>DE89370400440532013000</IBAN></Id></Acct>
      <Ntry>
        <NtryRef>R1</NtryRef>
        <Amt Ccy="EUR">2500.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <Sts>BOOK</Sts>
        <BookgDt><Dt>2026-10-01</Dt></BookgDt>
        <ValDt><Dt>2026-10-01</Dt></ValDt>
        <AcctSvcrRef>BANK-001</AcctSvcrRef>
        <NtryDtls><TxDtls><RmtInf><Ustrd>Salary October</Ustrd></RmtInf></TxDtls></NtryDtls>
      </Ntry>
      <Ntry>
        <Amt Ccy="EUR">49.90</Amt>
        <CdtDbtInd>DBIT</CdtDbtInd>
        <Sts><Cd>PDNG</Cd></Sts>
        <ValDt><DtTm>2026-10-20T10:15:00</DtTm></ValDt>
        <AddtlNtryInf>Internet provider</AddtlNtryInf>
      </Ntry>
    </Stmt>
  </BkToCstmrStmt>
</Document>`

func newParser() *Parser {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewParser(log)
}

func TestParse(t *testing.T) {
	st, err := newParser().Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "DE89370400440532013000", st.Account)
	require.Len(t, st.Entries, 2)

	salary := st.Entries[0]
	assert.Equal(t, models.KindIncome, salary.Kind)
	assert.True(t, salary.Amount.Equal(decimal.RequireFromString("2500")))
	assert.Equal(t, "EUR", salary.Currency)
	assert.Equal(t, calendar.Date(2026, time.October, 1), salary.Date)
	assert.Equal(t, "Salary October", salary.Description)
	assert.Equal(t, "BANK-001", salary.Reference)
	assert.True(t, salary.Booked)

	internet := st.Entries[1]
	assert.Equal(t, models.KindExpense, internet.Kind)
	assert.Equal(t, models.Cents(4990), models.CentsFromDecimal(internet.Amount))
	assert.Equal(t, calendar.Date(2026, time.October, 20), internet.Date)
	assert.Equal(t, "Internet provider", internet.Description)
	assert.False(t, internet.Booked)
}

func TestParseErrors(t *testing.T) {
	entry := func(body string) string {
		return `<Document><BkToCstmrStmt><Stmt><Ntry>` + body + `</Ntry></Stmt></BkToCstmrStmt></Document>`
	}
	tests := []struct {
		name string
		doc  string
	}{
		{"not_xml", "nope"},
		{"no_statement", "<Document></Document>"},
		{"missing_amount", entry(`<CdtDbtInd>DBIT</CdtDbtInd><BookgDt><Dt>2026-10-01</Dt></BookgDt>`)},
		{"bad_amount", entry(`<Amt>abc</Amt><CdtDbtInd>DBIT</CdtDbtInd><BookgDt><Dt>2026-10-01</Dt></BookgDt>`)},
		{"negative_amount", entry(`<Amt>-1</Amt><CdtDbtInd>DBIT</CdtDbtInd><BookgDt><Dt>2026-10-01</Dt></BookgDt>`)},
		{"bad_indicator", entry(`<Amt>1</Amt><CdtDbtInd>X</CdtDbtInd><BookgDt><Dt>2026-10-01</Dt></BookgDt>`)},
		{"missing_date", entry(`<Amt>1</Amt><CdtDbtInd>DBIT</CdtDbtInd>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newParser().Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}
