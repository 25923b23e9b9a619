package mongodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cellarworks/cellar-service/internal/domain"
	"github.com/cellarworks/cellar-service/pkg/cloudevents"
	"github.com/cellarworks/cellar-service/pkg/kafka"
	appMongo "github.com/cellarworks/cellar-service/pkg/mongodb"
	"github.com/cellarworks/cellar-service/pkg/outbox"
	outboxMongo "github.com/cellarworks/cellar-service/pkg/outbox/mongodb"
)

const (
	slotsCollection = "cellar_slots"
	plansCollection = "reorg_plans"
)

// SlotRepository persists the cellar grid in MongoDB
type SlotRepository struct {
	collection   *appMongo.InstrumentedCollection
	client       *appMongo.InstrumentedClient
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewSlotRepository creates a new SlotRepository
func NewSlotRepository(client *appMongo.InstrumentedClient, eventFactory *cloudevents.EventFactory) *SlotRepository {
	repo := &SlotRepository{
		collection:   client.Collection(slotsCollection),
		client:       client,
		outboxRepo:   outboxMongo.NewOutboxRepository(client),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SlotRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "locationCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "zone", Value: 1}, {Key: "rowNum", Value: 1}, {Key: "colNum", Value: 1}}},
		{Keys: bson.D{{Key: "occupant.wineId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	r.collection.Underlying().Indexes().CreateMany(ctx, indexes)

	_ = r.outboxRepo.EnsureIndexes(ctx)
}

// EnsureGrid inserts any slot of the physical grid that is not yet in
// the collection, leaving existing slots and their occupants untouched
func (r *SlotRepository) EnsureGrid(ctx context.Context) error {
	models := make([]mongo.WriteModel, 0)
	for _, slot := range domain.GenerateGrid() {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"locationCode": slot.Code}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"zone":         slot.Zone,
				"locationCode": slot.Code,
				"rowNum":       slot.Row,
				"colNum":       slot.Col,
			}}).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to ensure grid: %w", err)
	}
	return nil
}

// FindByCode retrieves a slot by its location code
func (r *SlotRepository) FindByCode(ctx context.Context, code string) (*domain.Slot, error) {
	var slot domain.Slot
	err := r.collection.FindOne(ctx, bson.M{"locationCode": code}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindAll retrieves every slot in zone, row, column order
func (r *SlotRepository) FindAll(ctx context.Context) ([]domain.Slot, error) {
	return r.findSlots(ctx, bson.M{})
}

// FindByZone retrieves the slots of one zone
func (r *SlotRepository) FindByZone(ctx context.Context, zone domain.Zone) ([]domain.Slot, error) {
	return r.findSlots(ctx, bson.M{"zone": zone})
}

func (r *SlotRepository) findSlots(ctx context.Context, filter bson.M) ([]domain.Slot, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "zone", Value: 1},
		{Key: "rowNum", Value: 1},
		{Key: "colNum", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []domain.Slot
	err = cursor.All(ctx, &slots)
	return slots, err
}

// CurrentLayout builds the occupied-slot map the planner consumes
func (r *SlotRepository) CurrentLayout(ctx context.Context) (domain.CurrentLayout, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"occupant": bson.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []domain.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}

	layout := make(domain.CurrentLayout, len(slots))
	for _, slot := range slots {
		if slot.Occupant != nil {
			layout[slot.Code] = *slot.Occupant
		}
	}
	return layout, nil
}

// Assign places a wine in a slot, replacing any previous occupant, and
// records a slot-assigned event in the outbox within the same
// transaction
func (r *SlotRepository) Assign(ctx context.Context, code string, occupant domain.SlotOccupant) error {
	return r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var slot domain.Slot
		if err := r.collection.FindOne(sessCtx, bson.M{"locationCode": code}).Decode(&slot); err != nil {
			if err == mongo.ErrNoDocuments {
				return domain.ErrSlotNotFound
			}
			return err
		}

		update := bson.M{"$set": bson.M{"occupant": occupant, "updatedAt": time.Now().UTC()}}
		if _, err := r.collection.UpdateOne(sessCtx, bson.M{"locationCode": code}, update); err != nil {
			return fmt.Errorf("failed to assign slot: %w", err)
		}

		event := r.eventFactory.CreateSlotAssignedEvent(sessCtx, code, string(slot.Zone),
			strconv.Itoa(occupant.WineID), occupant.WineName, occupant.Colour)
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(code, "Slot", kafka.Topics.LayoutEvents, event)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		if err := r.outboxRepo.Save(sessCtx, outboxEvent); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}

		return nil
	})
}

// Clear empties a slot and returns its previous occupant. Clearing an
// already empty slot is a no-op.
func (r *SlotRepository) Clear(ctx context.Context, code string) (*domain.SlotOccupant, error) {
	var cleared *domain.SlotOccupant

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var slot domain.Slot
		if err := r.collection.FindOne(sessCtx, bson.M{"locationCode": code}).Decode(&slot); err != nil {
			if err == mongo.ErrNoDocuments {
				return domain.ErrSlotNotFound
			}
			return err
		}

		if slot.Occupant == nil {
			return nil
		}

		update := bson.M{
			"$unset": bson.M{"occupant": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
		if _, err := r.collection.UpdateOne(sessCtx, bson.M{"locationCode": code}, update); err != nil {
			return fmt.Errorf("failed to clear slot: %w", err)
		}

		event := r.eventFactory.CreateSlotClearedEvent(sessCtx, code, string(slot.Zone),
			strconv.Itoa(slot.Occupant.WineID))
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(code, "Slot", kafka.Topics.LayoutEvents, event)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		if err := r.outboxRepo.Save(sessCtx, outboxEvent); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}

		cleared = slot.Occupant
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cleared, nil
}

// ApplyPlan executes every move of a plan in one transaction. All
// source slots are cleared before any target slot is written, so swap
// and cycle members never overwrite state another move still needs. The
// plan document and its outbox events are updated in the same
// transaction; a crash leaves the cellar fully old or fully new.
func (r *SlotRepository) ApplyPlan(ctx context.Context, plan *domain.ReorgPlan) error {
	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		now := time.Now().UTC()

		if len(plan.Moves) > 0 {
			// Moves carry wine identity but not colour; read it off the
			// source occupants before they are cleared.
			fromCodes := make([]string, 0, len(plan.Moves))
			for _, move := range plan.Moves {
				fromCodes = append(fromCodes, move.From)
			}
			cursor, err := r.collection.Find(sessCtx, bson.M{
				"locationCode": bson.M{"$in": fromCodes},
				"occupant":     bson.M{"$exists": true},
			})
			if err != nil {
				return fmt.Errorf("failed to load source slots: %w", err)
			}
			var sources []domain.Slot
			if err := cursor.All(sessCtx, &sources); err != nil {
				return fmt.Errorf("failed to decode source slots: %w", err)
			}
			colours := make(map[int]string, len(sources))
			for _, slot := range sources {
				if slot.Occupant != nil {
					colours[slot.Occupant.WineID] = slot.Occupant.Colour
				}
			}

			// Phase 1: vacate every source slot
			clears := make([]mongo.WriteModel, 0, len(plan.Moves))
			for _, move := range plan.Moves {
				clears = append(clears, mongo.NewUpdateOneModel().
					SetFilter(bson.M{"locationCode": move.From}).
					SetUpdate(bson.M{
						"$unset": bson.M{"occupant": ""},
						"$set":   bson.M{"updatedAt": now},
					}))
			}
			if _, err := r.collection.BulkWrite(sessCtx, clears); err != nil {
				return fmt.Errorf("failed to clear source slots: %w", err)
			}

			// Phase 2: fill every target slot
			fills := make([]mongo.WriteModel, 0, len(plan.Moves))
			for _, move := range plan.Moves {
				occupant := domain.SlotOccupant{
					WineID:   move.WineID,
					WineName: move.WineName,
					Colour:   colours[move.WineID],
					ZoneID:   move.ZoneID,
				}
				fills = append(fills, mongo.NewUpdateOneModel().
					SetFilter(bson.M{"locationCode": move.To}).
					SetUpdate(bson.M{"$set": bson.M{"occupant": occupant, "updatedAt": now}}))
			}
			if _, err := r.collection.BulkWrite(sessCtx, fills); err != nil {
				return fmt.Errorf("failed to fill target slots: %w", err)
			}
		}

		planUpdate := bson.M{"$set": bson.M{
			"status":     plan.Status,
			"executedAt": plan.ExecutedAt,
			"updatedAt":  plan.UpdatedAt,
		}}
		if _, err := r.client.Collection(plansCollection).UpdateOne(sessCtx,
			bson.M{"planId": plan.PlanID}, planUpdate); err != nil {
			return fmt.Errorf("failed to update plan: %w", err)
		}

		event := r.eventFactory.CreatePlanExecutedEvent(sessCtx, plan.PlanID,
			len(plan.Moves), len(plan.Moves), len(plan.Moves), now)
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(plan.PlanID, "ReorgPlan", kafka.Topics.LayoutEvents, event)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		if err := r.outboxRepo.Save(sessCtx, outboxEvent); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}

		plan.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// OccupiedCountByZone counts occupied slots per zone
func (r *SlotRepository) OccupiedCountByZone(ctx context.Context) (map[domain.Zone]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"occupant": bson.M{"$exists": true}}}},
		{{Key: "$group", Value: bson.M{"_id": "$zone", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Zone  domain.Zone `bson:"_id"`
		Count int         `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := map[domain.Zone]int{domain.ZoneFridge: 0, domain.ZoneCellar: 0}
	for _, row := range rows {
		counts[row.Zone] = row.Count
	}
	return counts, nil
}

// GetOutboxRepository returns the outbox repository backing this service
func (r *SlotRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
