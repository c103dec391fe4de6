// Command checkout drives the client-side payment flow against a
// running API: create transaction, charge the provider, patch the
// transaction with the outcome. Each step degrades to a simulated
// result when its endpoint is unreachable, so the flow always ends in
// a terminal status.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"tienda/internal/payment"
)

type createResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type productResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl"`
	PriceCents int64  `json:"priceCents"`
}

func main() {
	api := flag.String("api", "http://localhost:3000", "API base URL")
	wompi := flag.String("wompi", "", "payment provider endpoint (default <api>/wompi)")
	productID := flag.String("product", "prod-headphones", "product id to buy")
	qty := flag.Int64("qty", 1, "quantity")
	name := flag.String("name", "Ada Lovelace", "customer full name")
	email := flag.String("email", "ada@example.com", "customer email")
	address := flag.String("address", "Calle 1 #2-34", "delivery address")
	city := flag.String("city", "Bogotá", "delivery city")
	card := flag.String("card", "4242424242424242", "card number (simulated)")
	baseFee := flag.Int64("basefee", 900, "base fee in cents")
	deliveryFee := flag.Int64("deliveryfee", 1500, "delivery fee in cents")
	flag.Parse()

	endpoint := *wompi
	if endpoint == "" {
		endpoint = *api + "/wompi"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpc := &http.Client{Timeout: 10 * time.Second}

	product, err := fetchProduct(ctx, httpc, *api, *productID)
	if err != nil {
		log.Fatalf("could not load product %s: %v", *productID, err)
	}
	amount := product.PriceCents**qty + *baseFee + *deliveryFee
	last4 := cardLast4(*card)

	payload := map[string]any{
		"items": []map[string]any{{
			"productId":  product.ID,
			"name":       product.Name,
			"priceCents": product.PriceCents,
			"quantity":   *qty,
			"imageUrl":   product.ImageURL,
		}},
		"amountCents":      amount,
		"baseFeeCents":     *baseFee,
		"deliveryFeeCents": *deliveryFee,
		"customer":         map[string]any{"fullName": *name, "email": *email},
		"delivery":         map[string]any{"addressLine1": *address, "city": *city},
		"cardBrand":        cardBrand(*card),
		"cardLast4":        last4,
	}

	tx, simulatedTx := tryCreateTransaction(ctx, httpc, *api, payload)
	log.Printf("transaction %s (%s) created, simulated=%v", tx.ID, tx.Reference, simulatedTx)

	// Even last card digit approves, odd declines; the provider may
	// override the hint.
	hint := "APPROVED"
	digits := strings.TrimSpace(*card)
	if len(digits) > 0 && (digits[len(digits)-1]-'0')%2 == 1 {
		hint = "DECLINED"
	}

	client := payment.NewClient(endpoint)
	result := client.Charge(ctx, payment.ChargeRequest{
		AmountCents:  amount,
		Currency:     "USD",
		Reference:    tx.Reference,
		Card:         payment.Card{Number: *card, Holder: *name},
		Customer:     payment.Customer{FullName: *name, Email: *email},
		DecisionHint: hint,
	})

	provider := "WOMPI"
	if result.Simulated {
		provider = "SIMULATED"
	}
	updated := tryUpdateTransaction(ctx, httpc, *api, tx.ID, map[string]any{
		"status":       result.Status,
		"provider":     provider,
		"providerTxId": result.ProviderTxID,
		"cardBrand":    cardBrand(*card),
		"cardLast4":    last4,
	})

	fmt.Printf("reference=%s status=%s provider=%s providerTxId=%s patched=%v\n",
		tx.Reference, result.Status, provider, result.ProviderTxID, updated)
}

func fetchProduct(ctx context.Context, httpc *http.Client, api, id string) (productResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api+"/products/"+id, nil)
	if err != nil {
		return productResponse{}, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return productResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return productResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out productResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return productResponse{}, err
	}
	return out, nil
}

// tryCreateTransaction posts the cart; on any failure it substitutes a
// locally generated simulated transaction so the flow can continue.
func tryCreateTransaction(ctx context.Context, httpc *http.Client, api string, payload map[string]any) (createResponse, bool) {
	fallback := createResponse{
		ID:        fmt.Sprintf("tx_%d", time.Now().UnixMilli()),
		Reference: localReference(),
		Status:    "PENDING",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fallback, true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api+"/transactions", bytes.NewReader(body))
	if err != nil {
		return fallback, true
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Do(req)
	if err != nil {
		return fallback, true
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fallback, true
	}

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fallback, true
	}
	return out, false
}

func tryUpdateTransaction(ctx context.Context, httpc *http.Client, api, id string, payload map[string]any) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, api+"/transactions/"+id, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func localReference() string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 6)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return "REF-" + string(b)
}

func cardLast4(number string) string {
	digits := strings.TrimSpace(number)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "VISA"
	case strings.HasPrefix(number, "5") || strings.HasPrefix(number, "2"):
		return "MASTERCARD"
	}
	return "UNKNOWN"
}
