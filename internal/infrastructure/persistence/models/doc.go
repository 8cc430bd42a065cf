// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, TenantAggregateModel, SoftDeleteColumn)
// - types.go: JSON column types shared by several tables
// - identity.go: tenants and users
// - pipeline.go: investors, contacts, activities, tasks, meetings
// - network.go: LinkedIn connections and investor relationships
// - preferences.go, audit.go, integration.go, assistant.go: supporting contexts
package models
