package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDateMatcher(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"slash format", "Facture du 14/03/2024 pour un montant de 100€", "14/03/2024", true},
		{"dash format", "Date: 01-02-2023", "01-02-2023", true},
		{"dot format", "Émise le 31.12.2022", "31.12.2022", true},
		{"year first", "2024-03-14 Facture", "2024-03-14", true},
		{"first occurrence wins", "du 14/03/2024 au 15/03/2024", "14/03/2024", true},
		{"no calendar validation", "le 99/99/9999", "99/99/9999", true},
		{"no date", "aucune date ici", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DateMatcher{}.TryMatch(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvoiceNumberMatcher(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"facture n-degree", "Facture N° INV-2024-0091", "INV-2024-0091", true},
		{"facture no", "FACTURE NO 12345", "12345", true},
		{"facture dash", "Facture-A88/2024", "A88/2024", true},
		{"standalone n-degree", "N° F.2024.12", "F.2024.12", true},
		{"first label wins", "Facture n° A-1 puis Facture n° B-2", "A-1", true},
		{"no label", "total 100", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InvoiceNumberMatcher{}.TryMatch(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupplierMatcher(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"fournisseur label", "Fournisseur: ACME SARL\nTotal: 10", "ACME SARL", true},
		{"societe label", "Société BETA & Fils\nFacture 12", "BETA & Fils", true},
		{"vendeur label", "vendeur: Dupont Distribution", "Dupont Distribution", true},
		{"emetteur label", "Émetteur: Gamma SAS", "Gamma SAS", true},
		{"fallback first substantive line", "ACME Distribution SARL\nFacture N° 1\nTotal: 10", "ACME Distribution SARL", true},
		{"fallback skips short lines", "AB\nSARL Delta\nTotal: 10", "SARL Delta", true},
		{"fallback skips body words", "Facture du mois\nTotal TTC: 10\nTVA: 2\nClient: X", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SupplierMatcher{}.TryMatch(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientMatcher(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"facture a", "Facturé à Jean Dupont\nAutre ligne", "Jean Dupont", true},
		{"facturee a", "Facturee à Société Client SA", "Société Client SA", true},
		{"client colon", "Client: Marie Curie\nTotal: 10", "Marie Curie", true},
		{"line boundary only", "Client: Marie Curie\nPas lui", "Marie Curie", true},
		{"no fallback", "ACME SARL\nTotal: 10", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClientMatcher{}.TryMatch(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Catalog() {
		assert.False(t, seen[m.Name()], "duplicate matcher name %q", m.Name())
		seen[m.Name()] = true
	}
	assert.Len(t, seen, 7)
}
