// Package openfoodfacts implements the external product catalog client.
// It fetches product records from the Open Food Facts v2 API and maps them
// onto the domain Product, keeping the raw payload alongside the extracted
// fields.
package openfoodfacts
