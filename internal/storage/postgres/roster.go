package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
)

// ErrPartyNotFound is returned when a party lookup yields no results.
var ErrPartyNotFound = errors.New("party not found")

// ErrPartyNameTaken is returned when creating a party with a name already in use.
var ErrPartyNameTaken = errors.New("party name already taken")

// RosterRepository persists parties and their characters. The combat engine
// never touches it directly: a party is checked out before an encounter and
// written back after, per the snapshot-and-reconcile contract.
type RosterRepository struct {
	db *pgxpool.Pool
}

// NewRosterRepository creates a RosterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRosterRepository(db *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{db: db}
}

// CreateParty inserts an empty party and returns its ID.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the new party ID, or ErrPartyNameTaken on duplicate.
func (r *RosterRepository) CreateParty(ctx context.Context, name string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO parties (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return "", ErrPartyNameTaken
		}
		return "", fmt.Errorf("inserting party: %w", err)
	}
	return id, nil
}

// AddCharacter inserts a character into the party's roster at the next free
// position. Whether the character is active or reserve follows the party
// capacity rule at checkout time, not a stored flag.
//
// Precondition: c passed Validate; partyID references an existing party.
// Postcondition: c.ID is set when it was empty.
func (r *RosterRepository) AddCharacter(ctx context.Context, partyID string, c *party.Character) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning roster insert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO characters
			(id, party_id, name, class, level, experience,
			 max_hp, hp, max_sp, sp,
			 armor_class, speed, accuracy, damage_bonus,
			 attack_name, attack_damage, attacks_per_turn,
			 known_spells, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			COALESCE((SELECT MAX(position)+1 FROM characters WHERE party_id = $2), 0))`,
		c.ID, partyID, c.Name, string(c.Class), c.Level, c.Experience,
		c.MaxHP, c.HP, c.MaxSP, c.SP,
		c.ArmorClass, c.Speed, c.Accuracy, c.DamageBonus,
		c.Attack.Name, c.Attack.Damage, c.AttacksPerTurn,
		c.KnownSpells,
	)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}
	if err := replaceInventory(ctx, tx, c); err != nil {
		return err
	}
	if err := replaceConditions(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CheckoutParty loads a party snapshot for an encounter. Characters load in
// position order; the capacity rule routes everyone past the active cap to
// the reserve roster.
//
// Postcondition: Returns a validated Party or ErrPartyNotFound.
func (r *RosterRepository) CheckoutParty(ctx context.Context, partyID string) (*party.Party, error) {
	p := party.New()
	err := r.db.QueryRow(ctx, `
		SELECT gold, gems FROM parties WHERE id = $1`,
		partyID,
	).Scan(&p.Gold, &p.Gems)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("querying party: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, class, level, experience,
		       max_hp, hp, max_sp, sp,
		       armor_class, speed, accuracy, damage_bonus,
		       attack_name, attack_damage, attacks_per_turn, known_spells
		FROM characters WHERE party_id = $1 ORDER BY position ASC`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var chars []*party.Character
	for rows.Next() {
		var c party.Character
		var class string
		if err := rows.Scan(
			&c.ID, &c.Name, &class, &c.Level, &c.Experience,
			&c.MaxHP, &c.HP, &c.MaxSP, &c.SP,
			&c.ArmorClass, &c.Speed, &c.Accuracy, &c.DamageBonus,
			&c.Attack.Name, &c.Attack.Damage, &c.AttacksPerTurn, &c.KnownSpells,
		); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		c.Class = party.Class(class)
		chars = append(chars, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range chars {
		if err := r.loadInventory(ctx, c); err != nil {
			return nil, err
		}
		if err := r.loadConditions(ctx, c); err != nil {
			return nil, err
		}
		if _, err := p.AddMember(c); err != nil {
			return nil, fmt.Errorf("assembling party %q: %w", partyID, err)
		}
	}
	return p, nil
}

// WriteBack reconciles encounter results into the roster: party currencies,
// every character's HP, SP, experience, and level, the full inventory
// contents, and any conditions still running. The write is transactional; a
// failure leaves the stored roster at its pre-encounter state.
func (r *RosterRepository) WriteBack(ctx context.Context, partyID string, p *party.Party) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning write-back: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE parties SET gold = $2, gems = $3, updated_at = NOW()
		WHERE id = $1`,
		partyID, p.Gold, p.Gems,
	)
	if err != nil {
		return fmt.Errorf("updating party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPartyNotFound
	}

	all := make([]*party.Character, 0, len(p.Members)+len(p.Reserve))
	all = append(all, p.Members...)
	all = append(all, p.Reserve...)
	for pos, c := range all {
		_, err := tx.Exec(ctx, `
			UPDATE characters
			SET hp = $2, sp = $3, experience = $4, level = $5,
			    position = $6, updated_at = NOW()
			WHERE id = $1 AND party_id = $7`,
			c.ID, c.HP, c.SP, c.Experience, c.Level, pos, partyID,
		)
		if err != nil {
			return fmt.Errorf("updating character %q: %w", c.ID, err)
		}
		if err := replaceInventory(ctx, tx, c); err != nil {
			return err
		}
		if err := replaceConditions(ctx, tx, c); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *RosterRepository) loadInventory(ctx context.Context, c *party.Character) error {
	rows, err := r.db.Query(ctx, `
		SELECT item_id, charges_left
		FROM character_items WHERE character_id = $1 ORDER BY slot ASC`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("listing inventory for %q: %w", c.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var inst party.ItemInstance
		if err := rows.Scan(&inst.ItemID, &inst.ChargesLeft); err != nil {
			return fmt.Errorf("scanning inventory row: %w", err)
		}
		c.Inventory = append(c.Inventory, inst)
	}
	return rows.Err()
}

func replaceInventory(ctx context.Context, tx pgx.Tx, c *party.Character) error {
	if _, err := tx.Exec(ctx, `DELETE FROM character_items WHERE character_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clearing inventory for %q: %w", c.ID, err)
	}
	for slot, inst := range c.Inventory {
		_, err := tx.Exec(ctx, `
			INSERT INTO character_items (character_id, slot, item_id, charges_left)
			VALUES ($1, $2, $3, $4)`,
			c.ID, slot, inst.ItemID, inst.ChargesLeft,
		)
		if err != nil {
			return fmt.Errorf("inserting inventory row for %q: %w", c.ID, err)
		}
	}
	return nil
}

func (r *RosterRepository) loadConditions(ctx context.Context, c *party.Character) error {
	rows, err := r.db.Query(ctx, `
		SELECT condition_id, magnitude, remaining
		FROM character_conditions WHERE character_id = $1 ORDER BY condition_id ASC`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("listing conditions for %q: %w", c.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ac party.ActiveCondition
		if err := rows.Scan(&ac.ConditionID, &ac.Magnitude, &ac.Remaining); err != nil {
			return fmt.Errorf("scanning condition row: %w", err)
		}
		c.Conditions = append(c.Conditions, ac)
	}
	return rows.Err()
}

func replaceConditions(ctx context.Context, tx pgx.Tx, c *party.Character) error {
	if _, err := tx.Exec(ctx, `DELETE FROM character_conditions WHERE character_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clearing conditions for %q: %w", c.ID, err)
	}
	for _, ac := range c.Conditions {
		_, err := tx.Exec(ctx, `
			INSERT INTO character_conditions (character_id, condition_id, magnitude, remaining)
			VALUES ($1, $2, $3, $4)`,
			c.ID, ac.ConditionID, ac.Magnitude, ac.Remaining,
		)
		if err != nil {
			return fmt.Errorf("inserting condition row for %q: %w", c.ID, err)
		}
	}
	return nil
}

// ValidateItems checks every stored inventory reference against the loaded
// content database, catching content/roster drift at startup.
func (r *RosterRepository) ValidateItems(ctx context.Context, db *content.Database) error {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT item_id FROM character_items`)
	if err != nil {
		return fmt.Errorf("listing stored item ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning item id: %w", err)
		}
		if _, ok := db.Items[id]; !ok {
			return fmt.Errorf("roster references unknown item %q", id)
		}
	}
	return rows.Err()
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
