package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/validation"
)

func (c *Cli) runLookup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: matswap lookup <barcode>", ErrUsage)
	}

	rec, err := c.reader.Lookup(ctx, args[0])
	if err != nil {
		return err
	}

	c.printRecord(rec)
	return nil
}

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: matswap list <style|material>", ErrUsage)
	}

	t := models.RecordType(strings.ToLower(args[0]))
	if !t.IsKnown() {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownType, args[0])
	}

	records, err := c.reader.List(ctx, t)
	if err != nil {
		return err
	}

	title := strings.ToUpper(string(t[:1])) + string(t[1:])
	c.io.Printf("=== %s records ===\n", title)
	c.io.Println()

	if len(records) == 0 {
		c.io.Println("No records.")
		return nil
	}

	for i, r := range records {
		c.io.Printf("%d. %s  %s\n", i+1, r.ID, r.Name)
	}
	c.io.Println()
	c.io.Printf("Total: %d\n", len(records))
	return nil
}

func (c *Cli) runSwap(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: matswap swap <style-barcode> <material-barcode>", ErrUsage)
	}

	pair, err := c.reader.Swap(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	c.io.Println("=== Style ===")
	c.printRecord(pair.Style)
	c.io.Println()
	c.io.Println("=== Material ===")
	c.printRecord(pair.Material)
	return nil
}

// runAssign привязывает штрихкод к записи.
// Аргумент может быть штрихкодом или типом: для типа предлагается следующий свободный штрихкод.
func (c *Cli) runAssign(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: matswap assign <barcode|style|material>", ErrUsage)
	}

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	id, recordType, err := c.resolveAssignTarget(args[0])
	if err != nil {
		return err
	}

	c.io.Printf("=== Assign %s ===\n", id)
	c.io.Println()

	if existing, ok := c.catalog.Lookup(id); ok {
		c.io.Println("This barcode is already assigned:")
		c.printRecord(existing)
		answer, err := c.io.ReadInput("Overwrite? [y/N]: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			c.io.Println("Aborted.")
			return nil
		}
	}

	name, err := c.readRequired("Name: ")
	if err != nil {
		return err
	}
	imageURL, err := c.readRequired("Image URL: ")
	if err != nil {
		return err
	}
	description, err := c.io.ReadInput("Description (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read description: %w", err)
	}

	fields := models.RecordFields{
		Type:        recordType,
		Name:        name,
		ImageURL:    imageURL,
		Description: description,
	}
	if err := c.catalog.Insert(ctx, id, fields); err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("✓ Barcode %s assigned to %q\n", id, name)
	return nil
}

// resolveAssignTarget возвращает штрихкод и тип записи для assign
func (c *Cli) resolveAssignTarget(arg string) (string, models.RecordType, error) {
	if t := models.RecordType(strings.ToLower(arg)); t.IsKnown() {
		id, err := c.catalog.GenerateID(t)
		if err != nil {
			return "", "", err
		}
		return id, t, nil
	}

	if err := validateBarcode(arg); err != nil {
		return "", "", err
	}
	t, _ := validation.TypeForID(arg)
	return arg, t, nil
}

// requireSession проверяет сессию и продлевает ее
func (c *Cli) requireSession(ctx context.Context) error {
	if !c.gate.IsSessionValid(ctx) {
		return ErrNoSession
	}
	c.gate.ExtendSession(ctx)
	return nil
}

func (c *Cli) readRequired(prompt string) (string, error) {
	value, err := c.io.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if value == "" {
		return "", fmt.Errorf("%s %w", strings.TrimSuffix(prompt, ": "), ErrEmptyField)
	}
	return value, nil
}

func (c *Cli) printRecord(r *models.Record) {
	c.io.Printf("Barcode:     %s\n", r.ID)
	c.io.Printf("Type:        %s\n", r.Type)
	c.io.Printf("Name:        %s\n", r.Name)
	c.io.Printf("Image:       %s\n", r.ImageURL)
	if r.Description != "" {
		c.io.Printf("Description: %s\n", r.Description)
	}
}

func (c *Cli) printCatalogSummary(ctx context.Context) error {
	styles, err := c.reader.List(ctx, models.RecordTypeStyle)
	if err != nil {
		return err
	}
	materials, err := c.reader.List(ctx, models.RecordTypeMaterial)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("Catalog: %d styles, %d materials\n", len(styles), len(materials))
	return nil
}

// validateBarcode приводит ошибку формата к catalog.ErrInvalidFormat
func validateBarcode(id string) error {
	if err := validation.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %w", catalog.ErrInvalidFormat, err)
	}
	return nil
}
