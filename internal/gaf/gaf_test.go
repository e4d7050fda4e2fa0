package gaf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `!gaf-version: 2.2
UniProtKB	P04637	TP53	enables	GO:0003677	PMID:1	IDA		F	Cellular tumor antigen p53	TP53	protein	taxon:9606	20200101	UniProt
UniProtKB	P01116	KRAS	enables	GO:0003924	PMID:2	IDA		F	GTPase KRas	KRAS	protein	taxon:9606	20200101	UniProt
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(sample))

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "P04637", rec.ObjectID)
	assert.Equal(t, "TP53", rec.ObjectSymbol)
	assert.Equal(t, "GO:0003677", rec.GOID)
	assert.Equal(t, "taxon:9606", rec.Taxon)

	rec, err = r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "KRAS", rec.ObjectSymbol)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}
