// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema names the tables and columns of the crewdesk database.

Repositories build their SQL from these descriptors so a renamed column is a
single edit here and a compile error everywhere it is used.
*/
package schema
